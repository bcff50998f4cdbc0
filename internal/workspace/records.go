package workspace

import (
	"context"
	"fmt"
	"net/http"
)

// RecordParent addresses the collection a record belongs to.
type RecordParent struct {
	CollectionID string `json:"collection_id"`
}

type createRecordRequest struct {
	Parent     RecordParent `json:"parent"`
	Properties Properties   `json:"properties"`
}

type updateRecordRequest struct {
	Properties Properties `json:"properties,omitempty"`
	Archived   *bool      `json:"archived,omitempty"`
}

type queryRequest struct {
	Filter      *QueryFilter `json:"filter,omitempty"`
	StartCursor string       `json:"start_cursor,omitempty"`
}

// CreateRecord creates a record in the collection with the given properties
// and returns the stored record, including its server-assigned ID.
func (c *Client) CreateRecord(ctx context.Context, collectionID string, props Properties) (*Record, error) {
	in := createRecordRequest{
		Parent:     RecordParent{CollectionID: collectionID},
		Properties: props,
	}

	var rec Record
	if err := c.doJSON(ctx, http.MethodPost, c.url("records"), in, &rec, false); err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &rec, nil
}

// UpdateRecord patches properties onto an existing record.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, props Properties) (*Record, error) {
	in := updateRecordRequest{Properties: props}

	var rec Record
	if err := c.doJSON(ctx, http.MethodPatch, c.url("records", recordID), in, &rec, false); err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return &rec, nil
}

// ArchiveRecord marks a record archived, removing it from the collection's
// active set.
func (c *Client) ArchiveRecord(ctx context.Context, recordID string) error {
	archived := true
	in := updateRecordRequest{Archived: &archived}
	return c.doJSON(ctx, http.MethodPatch, c.url("records", recordID), in, nil, false)
}

// GetRecord fetches one record with its properties.
func (c *Client) GetRecord(ctx context.Context, recordID string) (*Record, error) {
	var rec Record
	if err := c.doJSON(ctx, http.MethodGet, c.url("records", recordID), nil, &rec, true); err != nil {
		return nil, err
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// QueryCollection returns one result page. Pass the previous page's
// NextCursor to continue; an empty cursor starts from the beginning.
func (c *Client) QueryCollection(ctx context.Context, collectionID string, filter *QueryFilter, cursor string) (*RecordPage, error) {
	in := queryRequest{Filter: filter, StartCursor: cursor}

	var page RecordPage
	if err := c.doJSON(ctx, http.MethodPost, c.url("collections", collectionID, "query"), in, &page, true); err != nil {
		return nil, err
	}
	for i := range page.Results {
		if err := page.Results[i].validate(); err != nil {
			return nil, fmt.Errorf("query collection: %w", err)
		}
	}
	return &page, nil
}

// FetchActiveRecordIDs pages through the whole collection and collects the
// IDs of all non-archived records. The reconciler treats this set as the
// authoritative source for remote deletions.
func (c *Client) FetchActiveRecordIDs(ctx context.Context, collectionID string) ([]string, error) {
	var ids []string

	cursor := ""
	for {
		page, err := c.QueryCollection(ctx, collectionID, nil, cursor)
		if err != nil {
			return nil, err
		}
		for _, rec := range page.Results {
			if rec.Archived {
				continue
			}
			ids = append(ids, rec.ID)
		}
		if !page.HasMore || page.NextCursor == "" {
			return ids, nil
		}
		cursor = page.NextCursor
	}
}
