// Package syncer keeps local sketch documents eventually consistent with
// their remote records. The Pipeline executes one full sync attempt; the
// Coordinator debounces, coalesces, and serializes attempts per document.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/drawing"
	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
	"github.com/dmitrijs2005/sketchsync/internal/recognize"
	"github.com/dmitrijs2005/sketchsync/internal/render"
	"github.com/dmitrijs2005/sketchsync/internal/shortlink"
	"github.com/dmitrijs2005/sketchsync/internal/workspace"
)

// Display names of the optional collection properties the pipeline writes.
// The title property's display name varies per collection and is resolved
// from the schema instead.
const (
	PropRecognizedText = "Recognized Text"
	PropAppLink        = "App Link"
	PropLinks          = "Links"
)

// Runner executes one sync attempt for a document.
type Runner interface {
	Run(ctx context.Context, doc *models.Document) error
}

// RemoteClient is the slice of the workspace API the pipeline uses.
// *workspace.Client implements it.
type RemoteClient interface {
	CreateRecord(ctx context.Context, collectionID string, props workspace.Properties) (*workspace.Record, error)
	UpdateRecord(ctx context.Context, recordID string, props workspace.Properties) (*workspace.Record, error)
	GetRecord(ctx context.Context, recordID string) (*workspace.Record, error)
	QuerySchema(ctx context.Context, collectionID string) (workspace.Schema, error)
	TwoPhaseUpload(ctx context.Context, filename, contentType string, data []byte) (string, error)
	AllChildren(ctx context.Context, blockID string) ([]workspace.Block, error)
	AppendChildren(ctx context.Context, blockID string, children []workspace.NewBlock) ([]workspace.Block, error)
	DeleteChild(ctx context.Context, blockID string) error
	FetchEncodedDrawing(ctx context.Context, recordID string) (string, error)
}

// PipelineParams collects the collaborators a Pipeline needs.
type PipelineParams struct {
	Client       RemoteClient
	Renderer     render.Renderer
	Recognizer   recognize.Recognizer
	Shortener    shortlink.Shortener // nil disables shortening
	Logger       logging.Logger
	CollectionID string
	LinkScheme   string
}

// Pipeline pushes one document's state to the remote workspace: rendered
// image, encoded drawing content, record properties, and pulls back the
// record's relations. Safe for concurrent use across documents.
type Pipeline struct {
	client       RemoteClient
	renderer     render.Renderer
	recognizer   recognize.Recognizer
	shortener    shortlink.Shortener
	log          logging.Logger
	collectionID string
	linkScheme   string

	mu         sync.Mutex
	titleField string
}

func NewPipeline(p PipelineParams) *Pipeline {
	log := p.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Pipeline{
		client:       p.Client,
		renderer:     p.Renderer,
		recognizer:   p.Recognizer,
		shortener:    p.Shortener,
		log:          log,
		collectionID: p.CollectionID,
		linkScheme:   p.LinkScheme,
	}
}

// Run performs one atomic sync attempt from a single document snapshot.
// The first failing step aborts the run; there is no rollback, every step
// is idempotent or corrected by the next run.
func (p *Pipeline) Run(ctx context.Context, doc *models.Document) error {
	snap := doc.Snapshot()
	encoded := drawing.Encode(snap.Drawing)
	log := p.log.With("doc", snap.ID)

	p.checkDrift(ctx, &snap, encoded, log)

	image, err := p.renderer.Render(snap.Drawing)
	if err != nil {
		return stepErr(stepRender, err)
	}

	text := ""
	if p.recognizer != nil {
		text = p.recognizer.Recognize(ctx, image)
	}

	uploadID, err := p.client.TwoPhaseUpload(ctx, snap.ID+".png", "image/png", image)
	if err != nil {
		return stepErr(stepUpload, err)
	}

	recordID, err := p.upsert(ctx, &snap, text, log)
	if err != nil {
		return stepErr(stepUpsert, err)
	}
	if snap.RecordID == "" {
		doc.SetRecordID(recordID)
		snap.RecordID = recordID
	}

	if err := p.embed(ctx, doc, &snap, uploadID, log); err != nil {
		return stepErr(stepEmbed, err)
	}

	if err := p.writeContent(ctx, snap.RecordID, encoded); err != nil {
		return stepErr(stepContent, err)
	}

	if err := p.pullRelations(ctx, doc, &snap, log); err != nil {
		return stepErr(stepRelations, err)
	}

	doc.MarkSynced(time.Now().UTC())
	return nil
}

// checkDrift compares the remote-stored drawing with the fresh local
// encoding. Local always overwrites remote; a difference is only logged.
func (p *Pipeline) checkDrift(ctx context.Context, snap *models.Snapshot, encoded string, log logging.Logger) {
	if snap.RecordID == "" {
		return
	}
	remote, err := p.client.FetchEncodedDrawing(ctx, snap.RecordID)
	if err != nil {
		log.Warn(ctx, "drift check failed", "error", err)
		return
	}
	if remote != "" && remote != encoded {
		log.Warn(ctx, "remote drawing differs from local copy, overwriting")
	}
}

// resolveTitleField looks up the display name of the collection's
// title-typed property, caching the answer for the pipeline's lifetime.
func (p *Pipeline) resolveTitleField(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleField != "" {
		return p.titleField, nil
	}

	schema, err := p.client.QuerySchema(ctx, p.collectionID)
	if err != nil {
		return "", err
	}
	name, ok := schema.TitleField()
	if !ok {
		return "", fmt.Errorf("collection %s has no title field", p.collectionID)
	}
	p.titleField = name
	return name, nil
}

func (p *Pipeline) deepLink(ctx context.Context, id string, log logging.Logger) string {
	uri := fmt.Sprintf("%s://open?id=%s", p.linkScheme, id)
	if p.shortener == nil {
		return uri
	}
	short, err := p.shortener.Shorten(ctx, uri)
	if err != nil {
		log.Warn(ctx, "link shortener unavailable", "error", err)
		return uri
	}
	return short
}

// upsert creates or updates the document's record and returns its ID. A
// property_not_found response for the optional properties is downgraded to
// a warning and the write retried with the title alone.
func (p *Pipeline) upsert(ctx context.Context, snap *models.Snapshot, text string, log logging.Logger) (string, error) {
	titleField, err := p.resolveTitleField(ctx)
	if err != nil {
		return "", err
	}

	props := workspace.Properties{
		titleField:         workspace.TitleProperty(snap.Title),
		PropRecognizedText: workspace.TextProperty(text),
		PropAppLink:        workspace.URLProperty(p.deepLink(ctx, snap.ID, log)),
	}
	titleOnly := workspace.Properties{titleField: workspace.TitleProperty(snap.Title)}

	if snap.RecordID == "" {
		rec, err := p.client.CreateRecord(ctx, p.collectionID, props)
		if workspace.IsPropertyNotFound(err) {
			log.Warn(ctx, "collection lacks an optional property, creating with title only", "error", err)
			rec, err = p.client.CreateRecord(ctx, p.collectionID, titleOnly)
		}
		if err != nil {
			return "", err
		}
		return rec.ID, nil
	}

	_, err = p.client.UpdateRecord(ctx, snap.RecordID, props)
	if workspace.IsPropertyNotFound(err) {
		log.Warn(ctx, "collection lacks an optional property, updating title only", "error", err)
		_, err = p.client.UpdateRecord(ctx, snap.RecordID, titleOnly)
	}
	if err != nil {
		return "", err
	}
	return snap.RecordID, nil
}

// embed replaces the embedded image inside the document's container
// block, recreating the container when the stored block ID is gone.
func (p *Pipeline) embed(ctx context.Context, doc *models.Document, snap *models.Snapshot, uploadID string, log logging.Logger) error {
	blockID := snap.EmbedBlockID

	var children []workspace.Block
	if blockID != "" {
		ch, err := p.client.AllChildren(ctx, blockID)
		switch {
		case err == nil:
			children = ch
		case workspace.IsNotFound(err):
			log.Info(ctx, "embed container gone, recreating", "block", blockID)
			blockID = ""
		default:
			return err
		}
	}

	if blockID == "" {
		created, err := p.client.AppendChildren(ctx, snap.RecordID, []workspace.NewBlock{workspace.NewCallout()})
		if err != nil {
			return err
		}
		blockID = created[0].ID
		doc.SetEmbedBlockID(blockID)
		snap.EmbedBlockID = blockID

		p.cleanupLegacyBlocks(ctx, snap.RecordID, blockID, log)
	}

	for _, ch := range children {
		if err := p.client.DeleteChild(ctx, ch.ID); err != nil {
			return err
		}
	}

	_, err := p.client.AppendChildren(ctx, blockID, []workspace.NewBlock{workspace.NewImageFromUpload(uploadID)})
	return err
}

// cleanupLegacyBlocks removes image and embed blocks that older releases
// wrote directly onto the record. Runs once, on the first-creation path of
// the embed container; failures leave stale blocks behind and nothing else.
func (p *Pipeline) cleanupLegacyBlocks(ctx context.Context, recordID, keepID string, log logging.Logger) {
	blocks, err := p.client.AllChildren(ctx, recordID)
	if err != nil {
		log.Warn(ctx, "legacy block scan failed", "error", err)
		return
	}
	for _, b := range blocks {
		if b.ID == keepID {
			continue
		}
		if b.Type != workspace.BlockTypeImage && b.Type != workspace.BlockTypeEmbed {
			continue
		}
		if err := p.client.DeleteChild(ctx, b.ID); err != nil {
			log.Warn(ctx, "legacy block delete failed", "block", b.ID, "error", err)
		}
	}
}

// writeContent rewrites the content-storage paragraph holding the encoded
// drawing, replacing any previous occupant of that role.
func (p *Pipeline) writeContent(ctx context.Context, recordID, encoded string) error {
	blocks, err := p.client.AllChildren(ctx, recordID)
	if err != nil {
		return err
	}

	if prev, ok := workspace.ContentBlock(blocks); ok {
		if err := p.client.DeleteChild(ctx, prev.ID); err != nil {
			return err
		}
	}

	chunks := drawing.Chunk(encoded, workspace.TextSegmentLimit)
	_, err = p.client.AppendChildren(ctx, recordID, []workspace.NewBlock{workspace.NewContentBlock(chunks)})
	return err
}

// pullRelations overwrites the document's linked IDs with the remote
// relation property (remote is authoritative for link membership) and
// refreshes the per-ID info cache, pruning entries for dropped IDs.
func (p *Pipeline) pullRelations(ctx context.Context, doc *models.Document, snap *models.Snapshot, log logging.Logger) error {
	rec, err := p.client.GetRecord(ctx, snap.RecordID)
	if err != nil {
		return err
	}

	ids := rec.RelationIDs(PropLinks)
	info := make(map[string]models.RecordInfo, len(ids))
	for _, id := range ids {
		if cached, ok := snap.LinkedInfo[id]; ok {
			info[id] = cached
			continue
		}
		linked, err := p.client.GetRecord(ctx, id)
		if err != nil {
			log.Warn(ctx, "linked record fetch failed", "record", id, "error", err)
			continue
		}
		info[id] = models.RecordInfo{Title: linked.Title(), Icon: linked.IconEmoji()}
	}

	doc.SetLinks(ids, info)
	return nil
}
