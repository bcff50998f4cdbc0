// Package models defines the document types shared by the sync engine,
// the library reconciler, and the local store.
package models

import (
	"sync"
	"time"
)

// RecordInfo is the cached display info for a linked remote record.
type RecordInfo struct {
	// Title is the linked record's title at the time of the last pull.
	Title string
	// Icon is the record's icon (usually an emoji), may be empty.
	Icon string
}

// Document is a locally-owned sketch plus its sync metadata.
//
// A document is built with plain field access (store loads, imports) and is
// then shared between the file watcher, the sync pipeline, and the
// reconciler. From that point on all access goes through Snapshot and the
// Set*/Mark* methods, which are guarded by an internal mutex.
type Document struct {
	mu sync.RWMutex

	// ID is the stable local identifier (UUID string).
	ID string

	// Title is the sketch title; doubles as the file name in the sketch dir.
	Title string

	// Drawing is the opaque drawing payload. Written by the input surface
	// and by decode-on-import, read-only to the sync subsystem.
	Drawing []byte

	// RecordID is the remote record ID. Empty until the first successful
	// upsert, then never changes.
	RecordID string

	// EmbedBlockID anchors the latest embedded image on the remote record.
	EmbedBlockID string

	// CreatedAt is the local creation time in UTC.
	CreatedAt time.Time

	// LastSyncedAt is the completion time of the last successful pipeline
	// run; zero if never synced.
	LastSyncedAt time.Time

	// Thumbnail is the derived raster preview, may be nil.
	Thumbnail []byte

	// LinkedIDs are the remote records linked to this document, in remote
	// order, unique.
	LinkedIDs []string

	// LinkedInfo caches display info per linked record ID. A relation pull
	// rewrites it together with LinkedIDs, so it never holds entries for
	// IDs that are no longer linked.
	LinkedInfo map[string]RecordInfo
}

// Snapshot is a consistent value copy of a Document's fields.
type Snapshot struct {
	ID           string
	Title        string
	Drawing      []byte
	RecordID     string
	EmbedBlockID string
	CreatedAt    time.Time
	LastSyncedAt time.Time
	Thumbnail    []byte
	LinkedIDs    []string
	LinkedInfo   map[string]RecordInfo
}

// Snapshot returns a deep value copy of the document taken under the read
// lock. The pipeline reads exactly one snapshot per run, so a run reflects
// the document state at the moment it started.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := Snapshot{
		ID:           d.ID,
		Title:        d.Title,
		Drawing:      append([]byte(nil), d.Drawing...),
		RecordID:     d.RecordID,
		EmbedBlockID: d.EmbedBlockID,
		CreatedAt:    d.CreatedAt,
		LastSyncedAt: d.LastSyncedAt,
		Thumbnail:    append([]byte(nil), d.Thumbnail...),
		LinkedIDs:    append([]string(nil), d.LinkedIDs...),
	}
	if d.LinkedInfo != nil {
		s.LinkedInfo = make(map[string]RecordInfo, len(d.LinkedInfo))
		for k, v := range d.LinkedInfo {
			s.LinkedInfo[k] = v
		}
	}
	return s
}

// SetDrawing replaces the drawing payload.
func (d *Document) SetDrawing(b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Drawing = append([]byte(nil), b...)
}

// SetTitle replaces the title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Title = title
}

// SetRecordID stores the remote record ID assigned on first upsert.
func (d *Document) SetRecordID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RecordID = id
}

// SetEmbedBlockID stores the current embed container's block ID.
func (d *Document) SetEmbedBlockID(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.EmbedBlockID = id
}

// SetThumbnail replaces the derived preview bytes.
func (d *Document) SetThumbnail(b []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Thumbnail = append([]byte(nil), b...)
}

// SetLinks overwrites the linked-ID list and the info cache together, so
// the cache-matches-IDs invariant holds at every observable point.
func (d *Document) SetLinks(ids []string, info map[string]RecordInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.LinkedIDs = append([]string(nil), ids...)
	d.LinkedInfo = info
}

// MarkSynced records the completion time of a successful pipeline run.
func (d *Document) MarkSynced(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.LastSyncedAt = t
}
