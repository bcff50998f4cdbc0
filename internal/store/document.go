package store

import (
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

// recordInfoDTO is the serialized form of a linked-record cache entry.
type recordInfoDTO struct {
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
}

// documentDTO is the serialized form of a document, shared by the S3
// object body and the SQLite JSON columns.
type documentDTO struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title"`
	Drawing      []byte                   `json:"drawing,omitempty"`
	RecordID     string                   `json:"record_id,omitempty"`
	EmbedBlockID string                   `json:"embed_block_id,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	LastSyncedAt time.Time                `json:"last_synced_at"`
	Thumbnail    []byte                   `json:"thumbnail,omitempty"`
	LinkedIDs    []string                 `json:"linked_ids,omitempty"`
	LinkedInfo   map[string]recordInfoDTO `json:"linked_info,omitempty"`
}

func toDTO(doc *models.Document) documentDTO {
	snap := doc.Snapshot()

	dto := documentDTO{
		ID:           snap.ID,
		Title:        snap.Title,
		Drawing:      snap.Drawing,
		RecordID:     snap.RecordID,
		EmbedBlockID: snap.EmbedBlockID,
		CreatedAt:    snap.CreatedAt.UTC(),
		LastSyncedAt: snap.LastSyncedAt.UTC(),
		Thumbnail:    snap.Thumbnail,
		LinkedIDs:    snap.LinkedIDs,
	}
	if len(snap.LinkedInfo) > 0 {
		dto.LinkedInfo = make(map[string]recordInfoDTO, len(snap.LinkedInfo))
		for id, info := range snap.LinkedInfo {
			dto.LinkedInfo[id] = recordInfoDTO{Title: info.Title, Icon: info.Icon}
		}
	}
	return dto
}

func (d documentDTO) model() *models.Document {
	doc := &models.Document{
		ID:           d.ID,
		Title:        d.Title,
		Drawing:      d.Drawing,
		RecordID:     d.RecordID,
		EmbedBlockID: d.EmbedBlockID,
		CreatedAt:    d.CreatedAt,
		LastSyncedAt: d.LastSyncedAt,
		Thumbnail:    d.Thumbnail,
		LinkedIDs:    d.LinkedIDs,
	}
	if len(d.LinkedInfo) > 0 {
		doc.LinkedInfo = make(map[string]models.RecordInfo, len(d.LinkedInfo))
		for id, info := range d.LinkedInfo {
			doc.LinkedInfo[id] = models.RecordInfo{Title: info.Title, Icon: info.Icon}
		}
	}
	return doc
}
