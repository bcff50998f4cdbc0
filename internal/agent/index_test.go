package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

func TestDocIndex_AddAndGet(t *testing.T) {
	x := newDocIndex()
	doc := &models.Document{ID: "d1", Title: "harbor"}

	x.add(doc)

	assert.Same(t, doc, x.get("harbor"))
	assert.Nil(t, x.get("pier"))
	assert.Equal(t, 1, x.len())
}

func TestDocIndex_RemoveByTitle(t *testing.T) {
	x := newDocIndex()
	doc := &models.Document{ID: "d1", Title: "harbor"}
	x.add(doc)

	got := x.removeByTitle("harbor")
	require.Same(t, doc, got)
	assert.Nil(t, x.get("harbor"))
	assert.Zero(t, x.len())

	assert.Nil(t, x.removeByTitle("harbor"), "second removal finds nothing")
}

func TestDocIndex_RemoveByID(t *testing.T) {
	x := newDocIndex()
	doc := &models.Document{ID: "d1", Title: "harbor"}
	x.add(doc)

	got := x.removeByID("d1")
	require.Same(t, doc, got)
	assert.Nil(t, x.get("harbor"))

	assert.Nil(t, x.removeByID("d1"))
}

func TestDocIndex_RemoveByID_KeepsNewerTitleOwner(t *testing.T) {
	x := newDocIndex()
	old := &models.Document{ID: "d1", Title: "harbor"}
	cur := &models.Document{ID: "d2", Title: "harbor"}
	x.add(old)
	x.add(cur)

	// d2 owns the title now; dropping d1 must not orphan it.
	require.Same(t, old, x.removeByID("d1"))
	assert.Same(t, cur, x.get("harbor"))
}

func TestDocIndex_All(t *testing.T) {
	x := newDocIndex()
	x.add(&models.Document{ID: "d1", Title: "one"})
	x.add(&models.Document{ID: "d2", Title: "two"})

	docs := x.all()
	assert.Len(t, docs, 2)

	ids := map[string]bool{}
	for _, d := range docs {
		ids[d.ID] = true
	}
	assert.True(t, ids["d1"] && ids["d2"])
}
