package agent

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// watchSketches blocks on the sketch directory's file events until ctx is
// canceled. Every event is handled inline: the heavy work happens in the
// sync workers anyway, and inline handling keeps events ordered.
func (app *App) watchSketches(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(app.sketchDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", app.sketchDir, err)
	}
	app.log.Info(ctx, "watching sketch directory", "dir", app.sketchDir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			app.handleFileEvent(ctx, ev)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			app.log.Warn(ctx, "watcher error", "error", err.Error())
		}
	}
}

func (app *App) handleFileEvent(ctx context.Context, ev fsnotify.Event) {
	if !isSketchFile(ev.Name) {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		app.handleSketchWrite(ctx, ev.Name)
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		app.handleSketchRemoval(ctx, ev.Name)
	}
}

// handleSketchWrite upserts the document behind a created or modified
// sketch file and schedules a debounced sync.
func (app *App) handleSketchWrite(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		app.log.Warn(ctx, "failed to read sketch file", "path", path, "error", err.Error())
		return
	}
	// Editors truncate before writing; the content arrives with a later event.
	if len(data) == 0 {
		return
	}

	title := titleFromPath(path)
	doc := app.index.get(title)
	if doc == nil {
		doc = &models.Document{
			ID:        uuid.NewString(),
			Title:     title,
			Drawing:   data,
			CreatedAt: time.Now().UTC(),
		}
		if thumb, err := app.renderer.Thumbnail(data, thumbnailMaxDim); err == nil {
			doc.Thumbnail = thumb
		} else {
			app.log.Warn(ctx, "failed to render thumbnail", "doc", doc.ID, "error", err.Error())
		}
		if err := app.repo.Insert(ctx, doc); err != nil {
			app.log.Error(ctx, "failed to store new sketch", "title", title, "error", err.Error())
			return
		}
		app.index.add(doc)
		app.log.Info(ctx, "tracking new sketch", "doc", doc.ID, "title", title)
	} else {
		doc.SetDrawing(data)
		if thumb, err := app.renderer.Thumbnail(data, thumbnailMaxDim); err == nil {
			doc.SetThumbnail(thumb)
		} else {
			app.log.Warn(ctx, "failed to render thumbnail", "doc", doc.ID, "error", err.Error())
		}
		if err := app.repo.Update(ctx, doc); err != nil {
			app.log.Warn(ctx, "failed to persist edit", "doc", doc.ID, "error", err.Error())
		}
	}

	app.coord.RequestSync(doc, app.config.DebounceInterval)
}

// handleSketchRemoval untracks the document behind a deleted or renamed
// sketch file, archives its remote record, and drops its local state.
// Archival is best effort: if it fails the record stays active remotely,
// and the next reconcile pass imports it back. Remote stays authoritative.
func (app *App) handleSketchRemoval(ctx context.Context, path string) {
	doc := app.index.removeByTitle(titleFromPath(path))
	if doc == nil {
		return
	}
	snap := doc.Snapshot()

	if snap.RecordID != "" {
		if err := app.client.ArchiveRecord(ctx, snap.RecordID); err != nil {
			app.log.Warn(ctx, "failed to archive remote record", "doc", snap.ID, "record", snap.RecordID, "error", err.Error())
		}
	}
	if err := app.repo.Delete(ctx, snap.ID); err != nil {
		app.log.Warn(ctx, "failed to delete stored document", "doc", snap.ID, "error", err.Error())
	}
	app.coord.Evict(snap.ID)
	app.log.Info(ctx, "untracked removed sketch", "doc", snap.ID, "title", snap.Title)
}
