// Package library reconciles the local document set against the remote
// collection: remote archival deletes local documents, remote records with
// stored drawing content and no local counterpart are imported.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sketchsync/internal/drawing"
	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
	"github.com/dmitrijs2005/sketchsync/internal/render"
	"github.com/dmitrijs2005/sketchsync/internal/workspace"
)

// Longer side of the preview rendered for imported documents.
const importThumbnailMaxDim = 256

// RemoteLibrary is the slice of the workspace client the reconciler needs.
type RemoteLibrary interface {
	FetchActiveRecordIDs(ctx context.Context, collectionID string) ([]string, error)
	GetRecord(ctx context.Context, recordID string) (*workspace.Record, error)
	FetchEncodedDrawing(ctx context.Context, parentID string) (string, error)
}

// Store is the document persistence slice used during reconciliation.
type Store interface {
	Delete(ctx context.Context, id string) error
	InsertAll(ctx context.Context, docs []*models.Document) error
}

// Evictor drops scheduler state for documents that no longer exist.
type Evictor interface {
	Evict(id string)
}

// Result reports what one reconciliation pass changed.
type Result struct {
	// Removed lists local document IDs deleted because their record was
	// archived or deleted remotely.
	Removed []string
	// Imported lists newly created local documents, already persisted.
	Imported []*models.Document
}

// Params collects the collaborators a Reconciler needs.
type Params struct {
	Client  RemoteLibrary
	Store   Store
	Evictor Evictor
	// Renderer produces import thumbnails; nil skips them.
	Renderer render.Renderer
	Logger   logging.Logger
	// CollectionID is the remote collection holding sketch records.
	CollectionID string
	// LinksProperty is the relation property seeding imported link IDs.
	LinksProperty string
}

// Reconciler runs the library-wide pass: remote state is authoritative for
// record existence, local state for drawing content.
type Reconciler struct {
	client   RemoteLibrary
	store    Store
	evictor  Evictor
	renderer render.Renderer
	log      logging.Logger

	collectionID  string
	linksProperty string
}

func NewReconciler(p Params) *Reconciler {
	log := p.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Reconciler{
		client:        p.Client,
		store:         p.Store,
		evictor:       p.Evictor,
		renderer:      p.Renderer,
		log:           log,
		collectionID:  p.CollectionID,
		linksProperty: p.LinksProperty,
	}
}

// normalizeID makes remote record IDs comparable across the dashed and
// compact formats the API returns interchangeably.
func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// Reconcile compares docs against the remote active-record set. Documents
// whose record disappeared remotely are deleted from the store and evicted
// from the scheduler; active records with no local counterpart are imported
// when their stored drawing content decodes. Never-synced documents are not
// touched.
func (r *Reconciler) Reconcile(ctx context.Context, docs []*models.Document) (*Result, error) {
	ids, err := r.client.FetchActiveRecordIDs(ctx, r.collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active record ids: %w", err)
	}
	active := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		active[normalizeID(id)] = struct{}{}
	}

	res := &Result{}
	matched := make(map[string]struct{})
	for _, doc := range docs {
		snap := doc.Snapshot()
		if snap.RecordID == "" {
			continue
		}
		key := normalizeID(snap.RecordID)
		if _, ok := active[key]; ok {
			matched[key] = struct{}{}
			continue
		}
		if err := r.store.Delete(ctx, snap.ID); err != nil {
			return nil, fmt.Errorf("failed to delete document %s: %w", snap.ID, err)
		}
		if r.evictor != nil {
			r.evictor.Evict(snap.ID)
		}
		r.log.Info(ctx, "removed document archived remotely", "doc", snap.ID, "record", snap.RecordID)
		res.Removed = append(res.Removed, snap.ID)
	}

	for _, raw := range ids {
		if _, ok := matched[normalizeID(raw)]; ok {
			continue
		}
		doc := r.importRecord(ctx, raw)
		if doc != nil {
			res.Imported = append(res.Imported, doc)
		}
	}
	if len(res.Imported) > 0 {
		if err := r.store.InsertAll(ctx, res.Imported); err != nil {
			return nil, fmt.Errorf("failed to insert imported documents: %w", err)
		}
	}
	return res, nil
}

// importRecord builds a local document from a remote record. Records
// without decodable drawing content are not sketches and are skipped; fetch
// failures are skipped too and retried by the next pass.
func (r *Reconciler) importRecord(ctx context.Context, recordID string) *models.Document {
	rec, err := r.client.GetRecord(ctx, recordID)
	if err != nil {
		r.log.Warn(ctx, "skipping import, record fetch failed", "record", recordID, "error", err.Error())
		return nil
	}
	encoded, err := r.client.FetchEncodedDrawing(ctx, recordID)
	if err != nil {
		r.log.Warn(ctx, "skipping import, content fetch failed", "record", recordID, "error", err.Error())
		return nil
	}
	if encoded == "" {
		return nil
	}
	raw, err := drawing.Decode(encoded)
	if err != nil {
		r.log.Debug(ctx, "skipping record without decodable content", "record", recordID)
		return nil
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:           uuid.NewString(),
		Title:        rec.Title(),
		Drawing:      raw,
		RecordID:     recordID,
		CreatedAt:    now,
		LastSyncedAt: now,
		LinkedIDs:    rec.RelationIDs(r.linksProperty),
	}
	if r.renderer != nil {
		thumb, err := r.renderer.Thumbnail(raw, importThumbnailMaxDim)
		if err != nil {
			r.log.Warn(ctx, "failed to render import thumbnail", "record", recordID, "error", err.Error())
		} else {
			doc.Thumbnail = thumb
		}
	}
	r.log.Info(ctx, "imported document from remote record", "doc", doc.ID, "record", recordID)
	return doc
}
