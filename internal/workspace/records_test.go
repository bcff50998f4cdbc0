package workspace

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRecord_SendsParentAndProperties(t *testing.T) {
	var got createRecordRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/records", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, Record{ID: "rec-1"})
	}))

	props := Properties{
		"Name":     TitleProperty("lighthouse"),
		"App Link": URLProperty("sketchsync://open?id=d1"),
	}
	rec, err := c.CreateRecord(context.Background(), "col-1", props)
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "col-1", got.Parent.CollectionID)
	assert.Equal(t, "lighthouse", got.Properties["Name"].Title[0].Text.Content)
	require.NotNil(t, got.Properties["App Link"].URL)
	assert.Equal(t, "sketchsync://open?id=d1", *got.Properties["App Link"].URL)
}

func TestUpdateRecord_PatchesProperties(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		writeJSON(t, w, http.StatusOK, Record{ID: "rec-1"})
	}))

	_, err := c.UpdateRecord(context.Background(), "rec-1", Properties{"Name": TitleProperty("x")})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/records/rec-1", gotPath)
}

func TestArchiveRecord_SendsArchivedTrue(t *testing.T) {
	var got updateRecordRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, Record{ID: "rec-1"})
	}))

	require.NoError(t, c.ArchiveRecord(context.Background(), "rec-1"))
	require.NotNil(t, got.Archived)
	assert.True(t, *got.Archived)
	assert.Empty(t, got.Properties)
}

func TestRecord_TitleAndRelationsAccessors(t *testing.T) {
	raw := `{
		"id": "rec-9",
		"archived": false,
		"icon": {"type": "emoji", "emoji": "⚓"},
		"properties": {
			"Sketch Name": {"type": "title", "title": [{"type":"text","text":{"content":"pier "},"plain_text":"pier "},{"type":"text","text":{"content":"17"},"plain_text":"17"}]},
			"Links": {"type": "relation", "relation": [{"id":"a1"},{"id":"b2"}]}
		}
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, "pier 17", rec.Title())
	assert.Equal(t, []string{"a1", "b2"}, rec.RelationIDs("Links"))
	assert.Nil(t, rec.RelationIDs("Missing"))
	assert.Equal(t, "⚓", rec.IconEmoji())
}

func TestQueryCollection_PassesFilterAndCursor(t *testing.T) {
	var got queryRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/col-1/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, RecordPage{Results: []Record{{ID: "r1"}}})
	}))

	filter := &QueryFilter{Property: "Name", Title: &TextFilter{Equals: "pier"}}
	page, err := c.QueryCollection(context.Background(), "col-1", filter, "cur-2")
	require.NoError(t, err)

	assert.Len(t, page.Results, 1)
	assert.Equal(t, "cur-2", got.StartCursor)
	require.NotNil(t, got.Filter)
	assert.Equal(t, "pier", got.Filter.Title.Equals)
}

func TestFetchActiveRecordIDs_PaginatesAndSkipsArchived(t *testing.T) {
	pages := map[string]RecordPage{
		"": {
			Results:    []Record{{ID: "r1"}, {ID: "r2", Archived: true}},
			HasMore:    true,
			NextCursor: "cur-2",
		},
		"cur-2": {
			Results: []Record{{ID: "r3"}},
		},
	}

	var cursors []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		cursors = append(cursors, in.StartCursor)
		writeJSON(t, w, http.StatusOK, pages[in.StartCursor])
	}))

	ids, err := c.FetchActiveRecordIDs(context.Background(), "col-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"r1", "r3"}, ids)
	assert.Equal(t, []string{"", "cur-2"}, cursors)
}
