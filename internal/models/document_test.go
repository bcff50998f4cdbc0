package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_IsDeepCopy(t *testing.T) {
	doc := &Document{
		ID:         "d1",
		Title:      "lighthouse",
		Drawing:    []byte{1, 2, 3},
		LinkedIDs:  []string{"r1", "r2"},
		LinkedInfo: map[string]RecordInfo{"r1": {Title: "Note"}},
	}

	s := doc.Snapshot()

	s.Drawing[0] = 99
	s.LinkedIDs[0] = "mutated"
	s.LinkedInfo["r2"] = RecordInfo{Title: "injected"}

	fresh := doc.Snapshot()
	assert.Equal(t, []byte{1, 2, 3}, fresh.Drawing)
	assert.Equal(t, []string{"r1", "r2"}, fresh.LinkedIDs)
	_, ok := fresh.LinkedInfo["r2"]
	assert.False(t, ok)
}

func TestSetters_VisibleInNextSnapshot(t *testing.T) {
	doc := &Document{ID: "d1", CreatedAt: time.Now().UTC()}

	doc.SetTitle("harbor")
	doc.SetDrawing([]byte("payload"))
	doc.SetRecordID("rec-1")
	doc.SetEmbedBlockID("blk-1")
	doc.SetThumbnail([]byte("thumb"))
	doc.SetLinks([]string{"a"}, map[string]RecordInfo{"a": {Title: "A", Icon: "📝"}})

	syncedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	doc.MarkSynced(syncedAt)

	s := doc.Snapshot()
	assert.Equal(t, "harbor", s.Title)
	assert.Equal(t, []byte("payload"), s.Drawing)
	assert.Equal(t, "rec-1", s.RecordID)
	assert.Equal(t, "blk-1", s.EmbedBlockID)
	assert.Equal(t, []byte("thumb"), s.Thumbnail)
	assert.Equal(t, []string{"a"}, s.LinkedIDs)
	assert.Equal(t, syncedAt, s.LastSyncedAt)
}

func TestSetLinks_CacheKeysMatchIDs(t *testing.T) {
	doc := &Document{ID: "d1"}
	doc.SetLinks([]string{"x", "y"}, map[string]RecordInfo{
		"x": {Title: "X"},
		"y": {Title: "Y"},
	})

	s := doc.Snapshot()
	require.Len(t, s.LinkedInfo, len(s.LinkedIDs))
	for _, id := range s.LinkedIDs {
		_, ok := s.LinkedInfo[id]
		require.True(t, ok, "cache must contain %s", id)
	}
}

func TestDocument_ConcurrentAccess(t *testing.T) {
	doc := &Document{ID: "d1"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			doc.SetDrawing([]byte("edit"))
			doc.MarkSynced(time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = doc.Snapshot()
		}()
	}
	wg.Wait()
}

func TestStatusError(t *testing.T) {
	st := StatusError("upload: boom")
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "upload: boom", st.Message)
	assert.Equal(t, SyncStatus{State: StateIdle}, StatusIdle)
}
