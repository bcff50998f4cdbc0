package workspace

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

type collectionResponse struct {
	ID         string `json:"id"`
	Properties Schema `json:"properties"`
}

// QuerySchema fetches the collection's property definitions: display name
// to field type, plus relation targets for relation-typed fields.
func (c *Client) QuerySchema(ctx context.Context, collectionID string) (Schema, error) {
	var out collectionResponse
	if err := c.doJSON(ctx, http.MethodGet, c.url("collections", collectionID), nil, &out, true); err != nil {
		return nil, err
	}
	if out.ID == "" || out.Properties == nil {
		return nil, fmt.Errorf("query schema: malformed collection response")
	}
	for name, f := range out.Properties {
		if f.Type == "" {
			return nil, fmt.Errorf("query schema: field %q without type", name)
		}
	}
	return out.Properties, nil
}

// ResolveRelationTarget returns the collection ID a relation-typed field
// points at. common.ErrorNotFound when the field is absent or not a
// relation.
func (c *Client) ResolveRelationTarget(ctx context.Context, collectionID, fieldName string) (string, error) {
	schema, err := c.QuerySchema(ctx, collectionID)
	if err != nil {
		return "", err
	}

	f, ok := schema[fieldName]
	if !ok || f.Type != "relation" || f.Relation == nil || f.Relation.CollectionID == "" {
		return "", fmt.Errorf("%w: relation field %q", common.ErrorNotFound, fieldName)
	}
	return f.Relation.CollectionID, nil
}
