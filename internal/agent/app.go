// Package agent runs the sketchsync agent: it watches a directory of
// sketch files, keeps their documents in a local store, and drives the sync
// engine that mirrors them into a remote workspace collection.
package agent

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"github.com/dmitrijs2005/sketchsync/internal/config"
	"github.com/dmitrijs2005/sketchsync/internal/filex"
	"github.com/dmitrijs2005/sketchsync/internal/library"
	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
	"github.com/dmitrijs2005/sketchsync/internal/netx"
	"github.com/dmitrijs2005/sketchsync/internal/recognize"
	"github.com/dmitrijs2005/sketchsync/internal/render"
	"github.com/dmitrijs2005/sketchsync/internal/shortlink"
	"github.com/dmitrijs2005/sketchsync/internal/store"
	"github.com/dmitrijs2005/sketchsync/internal/syncer"
	"github.com/dmitrijs2005/sketchsync/internal/workspace"
)

const (
	// Longer side of locally rendered previews.
	thumbnailMaxDim = 256

	onlineProbeTimeout = 2 * time.Second

	// How long shutdown waits for in-flight sync runs before canceling them.
	shutdownGrace = 10 * time.Second
)

// remote is everything the agent calls on the workspace client, directly or
// through the pipeline and the reconciler. *workspace.Client implements it.
type remote interface {
	syncer.RemoteClient
	library.RemoteLibrary

	ResolveCollectionByName(ctx context.Context, name string) (string, error)
	ResolveRelationTarget(ctx context.Context, collectionID, fieldName string) (string, error)
	ArchiveRecord(ctx context.Context, recordID string) error
	Host() string
}

type App struct {
	config *config.Config
	log    logging.Logger

	db         *sql.DB
	repo       store.Repository
	client     remote
	renderer   render.Renderer
	recognizer recognize.Recognizer
	shortener  shortlink.Shortener

	sketchDir    string
	collectionID string

	index *docIndex
	coord *syncer.Coordinator
	rec   *library.Reconciler
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	if cfg.Token == "" {
		token, err := promptToken()
		if err != nil {
			return nil, err
		}
		cfg.Token = token
	}

	app := &App{
		config:     cfg,
		log:        logger,
		renderer:   render.NewPNG(),
		recognizer: recognize.Noop{},
		index:      newDocIndex(),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	client, err := workspace.New(cfg.Endpoint, cfg.Token,
		workspace.WithLogger(logger),
		workspace.WithTimeouts(cfg.RequestTimeout, cfg.ResourceTimeout))
	if err != nil {
		return nil, fmt.Errorf("workspace client init error: %w", err)
	}
	app.client = client

	if cfg.ShortenerEndpoint != "" {
		s, err := shortlink.NewHTTP(cfg.ShortenerEndpoint)
		if err != nil {
			return nil, fmt.Errorf("shortener init error: %w", err)
		}
		app.shortener = s
	}

	return app, nil
}

func (app *App) initStore() error {
	ctx := context.Background()

	switch app.config.StoreBackend {
	case "", "sqlite":
		db, err := store.OpenSQLite(ctx, app.config.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("db init error: %w", err)
		}
		repo, err := store.NewSQLiteRepository(ctx, db, app.config.StorePassphrase)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("db init error: %w", err)
		}
		app.db = db
		app.repo = repo

	case "s3":
		repo, err := store.NewS3Repository(ctx, store.S3Config{
			Bucket:       app.config.S3Bucket,
			Region:       app.config.S3Region,
			AccessKey:    app.config.S3AccessKey,
			SecretKey:    app.config.S3SecretKey,
			BaseEndpoint: app.config.S3BaseEndpoint,
			Passphrase:   app.config.StorePassphrase,
		})
		if err != nil {
			return fmt.Errorf("object store init error: %w", err)
		}
		app.repo = repo

	default:
		return fmt.Errorf("unknown store backend %q", app.config.StoreBackend)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run drives the agent until ctx is canceled (watch mode) or the single
// pass completes (once mode). The returned error is nil on a clean stop.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.log.Info(ctx, "starting agent")

	app.initSignalHandler(cancelFunc)

	// Sync workers run on their own context so canceling the app does not
	// rip remote calls mid-write; shutdown drains first, then stops them.
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()

	if err := app.startup(ctx, workCtx); err != nil {
		return err
	}
	defer app.closeStore()

	if app.config.RunOnce {
		return app.runOnce(ctx)
	}

	app.watch(ctx, cancelFunc)
	return nil
}

// startup resolves the collection, verifies its schema, loads the stored
// documents, and assembles the sync engine on workCtx.
func (app *App) startup(ctx, workCtx context.Context) error {
	dir, err := filex.EnsureDir(app.config.SketchDir)
	if err != nil {
		return fmt.Errorf("sketch dir error: %w", err)
	}
	app.sketchDir = dir

	if err := app.resolveCollection(ctx); err != nil {
		return err
	}
	if err := app.probeSchema(ctx); err != nil {
		return err
	}

	docs, err := app.repo.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	for _, doc := range docs {
		app.index.add(doc)
	}

	pipeline := syncer.NewPipeline(syncer.PipelineParams{
		Client:       app.client,
		Renderer:     app.renderer,
		Recognizer:   app.recognizer,
		Shortener:    app.shortener,
		Logger:       app.log,
		CollectionID: app.collectionID,
		LinkScheme:   app.config.DeepLinkScheme,
	})
	app.coord = syncer.NewCoordinator(workCtx, syncer.CoordinatorParams{
		Runner:         &persistingRunner{next: pipeline, repo: app.repo, log: app.log},
		Online:         app.online,
		Logger:         app.log,
		SuccessDisplay: app.config.SuccessDisplay,
	})
	app.rec = library.NewReconciler(library.Params{
		Client:        app.client,
		Store:         app.repo,
		Evictor:       app.coord,
		Renderer:      app.renderer,
		Logger:        app.log,
		CollectionID:  app.collectionID,
		LinksProperty: syncer.PropLinks,
	})

	app.log.Info(ctx, "agent ready", "collection", app.collectionID, "docs", app.index.len(), "dir", app.sketchDir)
	return nil
}

func (app *App) resolveCollection(ctx context.Context) error {
	if app.config.CollectionID != "" {
		app.collectionID = app.config.CollectionID
		return nil
	}
	if app.config.CollectionName == "" {
		return fmt.Errorf("%w: collection id or name", common.ErrorNotConfigured)
	}

	id, err := app.client.ResolveCollectionByName(ctx, app.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to resolve collection %q: %w", app.config.CollectionName, err)
	}
	app.collectionID = id
	return nil
}

// probeSchema fails fast when the collection cannot hold sketch records at
// all. Optional properties are probed for logging only; the pipeline
// degrades without them.
func (app *App) probeSchema(ctx context.Context) error {
	schema, err := app.client.QuerySchema(ctx, app.collectionID)
	if err != nil {
		return fmt.Errorf("failed to query collection schema: %w", err)
	}
	if _, ok := schema.TitleField(); !ok {
		return fmt.Errorf("collection %s has no title field", app.collectionID)
	}

	target, err := app.client.ResolveRelationTarget(ctx, app.collectionID, syncer.PropLinks)
	if err != nil {
		app.log.Debug(ctx, "collection has no links relation", "collection", app.collectionID)
	} else {
		app.log.Debug(ctx, "links relation points at collection", "target", target)
	}
	return nil
}

// online is the connectivity probe used to tell offline failures apart
// from real sync errors.
func (app *App) online(ctx context.Context) bool {
	return netx.Online(app.client.Host(), onlineProbeTimeout)
}

// watch runs the file watcher and the periodic reconciler until ctx is
// canceled, then drains in-flight sync runs.
func (app *App) watch(ctx context.Context, cancelFunc context.CancelFunc) {
	app.reconcile(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.watchSketches(ctx); err != nil {
			app.log.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.reconcileLoop(ctx)
	}()

	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := app.coord.Drain(drainCtx); err != nil {
		app.log.Warn(drainCtx, "stopping with sync runs still in flight")
	}
}

// runOnce reconciles, force-syncs every document, waits for the engine to
// drain, and reports documents stuck in an error status.
func (app *App) runOnce(ctx context.Context) error {
	app.reconcile(ctx)

	docs := app.index.all()
	for _, doc := range docs {
		app.coord.ForceSync(doc)
	}
	if err := app.coord.Drain(ctx); err != nil {
		return fmt.Errorf("sync interrupted: %w", err)
	}

	failed := 0
	for _, doc := range docs {
		if st := app.coord.StatusOf(doc.ID); st.State == models.StateError {
			failed++
			app.log.Error(ctx, "document failed to sync", "doc", doc.ID, "error", st.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to sync", failed, len(docs))
	}
	app.log.Info(ctx, "sync complete", "docs", len(docs))
	return nil
}

func (app *App) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(app.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.reconcile(ctx)
		}
	}
}

// reconcile runs one library pass and folds its outcome into the index and
// the sketch directory. Failures are logged, not fatal: being offline is an
// expected state for this agent.
func (app *App) reconcile(ctx context.Context) {
	res, err := app.rec.Reconcile(ctx, app.index.all())
	if err != nil {
		app.log.Warn(ctx, "reconcile pass failed", "error", err.Error())
		return
	}

	for _, id := range res.Removed {
		if doc := app.index.removeByID(id); doc != nil {
			app.removeSketchFile(ctx, doc)
		}
	}
	for _, doc := range res.Imported {
		app.index.add(doc)
		app.writeSketchFile(ctx, doc)
	}
	if len(res.Removed) > 0 || len(res.Imported) > 0 {
		app.log.Info(ctx, "reconcile pass applied changes", "removed", len(res.Removed), "imported", len(res.Imported))
	}
}

func (app *App) closeStore() {
	if app.db != nil {
		_ = app.db.Close()
	}
}
