package workspace

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

type searchRequest struct {
	Query  string       `json:"query"`
	Filter searchFilter `json:"filter"`
}

type searchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Search queries the workspace for collections matching query.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	in := searchRequest{
		Query:  query,
		Filter: searchFilter{Property: "object", Value: "collection"},
	}

	var out struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.url("search"), in, &out, true); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ResolveCollectionByName finds the collection whose title matches name
// (case-insensitive). common.ErrorNotFound when no result matches.
func (c *Client) ResolveCollectionByName(ctx context.Context, name string) (string, error) {
	results, err := c.Search(ctx, name)
	if err != nil {
		return "", err
	}

	for _, r := range results {
		if strings.EqualFold(JoinSpans(r.Title), name) {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("%w: collection %q", common.ErrorNotFound, name)
}
