package workspace

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

// ContentMarker labels the content-storage paragraph on a record. Its
// first text span holds the marker; the remaining spans hold the encoded
// drawing, chunked to TextSegmentLimit.
const ContentMarker = "sketchsync:drawing"

// ListChildren returns one page of a block's (or record's) children.
// An empty cursor starts from the beginning.
func (c *Client) ListChildren(ctx context.Context, blockID, cursor string) (*BlockPage, error) {
	u := c.url("blocks", blockID, "children")
	q := u.Query()
	q.Set("limit", "100")
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()

	var page BlockPage
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &page, true); err != nil {
		return nil, err
	}
	for i := range page.Results {
		if err := page.Results[i].validate(); err != nil {
			return nil, fmt.Errorf("list children: %w", err)
		}
	}
	return &page, nil
}

// AllChildren follows cursors until the full child list is collected.
func (c *Client) AllChildren(ctx context.Context, blockID string) ([]Block, error) {
	var blocks []Block

	cursor := ""
	for {
		page, err := c.ListChildren(ctx, blockID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			return blocks, nil
		}
		cursor = page.NextCursor
	}
}

// AppendChildren appends blocks to the end of a parent's child list and
// returns the created blocks with their IDs. Failures wrap
// common.ErrorAppend.
func (c *Client) AppendChildren(ctx context.Context, blockID string, children []NewBlock) ([]Block, error) {
	in := struct {
		Children []NewBlock `json:"children"`
	}{Children: children}

	var out struct {
		Results []Block `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPatch, c.url("blocks", blockID, "children"), in, &out, false); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorAppend, err)
	}
	if len(out.Results) != len(children) {
		return nil, fmt.Errorf("%w: created %d of %d blocks", common.ErrorAppend, len(out.Results), len(children))
	}
	for i := range out.Results {
		if err := out.Results[i].validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorAppend, err)
		}
	}
	return out.Results, nil
}

// DeleteChild removes one block.
func (c *Client) DeleteChild(ctx context.Context, blockID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.url("blocks", blockID), nil, nil, false)
}

// ContentBlock finds the content-storage paragraph among blocks: the
// paragraph whose first text span equals ContentMarker.
func ContentBlock(blocks []Block) (Block, bool) {
	for _, b := range blocks {
		if b.Type != BlockTypeParagraph || b.Paragraph == nil {
			continue
		}
		spans := b.Paragraph.RichText
		if len(spans) > 0 && spans[0].Content() == ContentMarker {
			return b, true
		}
	}
	return Block{}, false
}

// EncodedContent extracts the encoded drawing payload from a
// content-storage block: all spans after the marker, concatenated.
func EncodedContent(b Block) string {
	if b.Paragraph == nil || len(b.Paragraph.RichText) < 2 {
		return ""
	}
	return JoinSpans(b.Paragraph.RichText[1:])
}

// NewContentBlock builds the content-storage paragraph for an encoded
// payload already chunked to the segment limit.
func NewContentBlock(chunks []string) NewBlock {
	spans := make([]TextSpan, 0, len(chunks)+1)
	spans = append(spans, Text(ContentMarker))
	for _, ch := range chunks {
		spans = append(spans, Text(ch))
	}
	return NewParagraph(spans...)
}

// FetchEncodedDrawing walks a record's top-level children and returns the
// stored encoded drawing, or "" when the record has no content block.
func (c *Client) FetchEncodedDrawing(ctx context.Context, recordID string) (string, error) {
	blocks, err := c.AllChildren(ctx, recordID)
	if err != nil {
		return "", err
	}
	b, ok := ContentBlock(blocks)
	if !ok {
		return "", nil
	}
	return EncodedContent(b), nil
}
