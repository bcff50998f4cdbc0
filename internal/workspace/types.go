package workspace

import "fmt"

// TextSegmentLimit is the remote API's maximum length of one text segment.
// Longer content must be split across segments (see drawing.Chunk).
const TextSegmentLimit = 2000

// TextSpan is one segment within a rich text list.
type TextSpan struct {
	Type      string    `json:"type"`
	Text      TextValue `json:"text"`
	PlainText string    `json:"plain_text,omitempty"`
}

// TextValue carries the literal content of a text span.
type TextValue struct {
	Content string `json:"content"`
}

// Text builds a plain text span.
func Text(content string) TextSpan {
	return TextSpan{Type: "text", Text: TextValue{Content: content}}
}

// Content returns the span's text, preferring the request-side content
// field and falling back to the response-side plain text.
func (s TextSpan) Content() string {
	if s.Text.Content != "" {
		return s.Text.Content
	}
	return s.PlainText
}

// JoinSpans concatenates the contents of spans in order.
func JoinSpans(spans []TextSpan) string {
	var out string
	for _, s := range spans {
		out += s.Content()
	}
	return out
}

// RelationRef points at another record.
type RelationRef struct {
	ID string `json:"id"`
}

// PropertyValue is the tagged union the API uses for record properties.
// Exactly one of the typed fields is populated, matching Type.
type PropertyValue struct {
	ID       string        `json:"id,omitempty"`
	Type     string        `json:"type,omitempty"`
	Title    []TextSpan    `json:"title,omitempty"`
	RichText []TextSpan    `json:"rich_text,omitempty"`
	URL      *string       `json:"url,omitempty"`
	Relation []RelationRef `json:"relation,omitempty"`
}

// Properties maps property display names to values.
type Properties map[string]PropertyValue

// TitleProperty builds a title property value.
func TitleProperty(s string) PropertyValue {
	return PropertyValue{Title: []TextSpan{Text(s)}}
}

// TextProperty builds a rich-text property value holding one segment.
func TextProperty(s string) PropertyValue {
	return PropertyValue{RichText: []TextSpan{Text(s)}}
}

// URLProperty builds a url property value.
func URLProperty(s string) PropertyValue {
	return PropertyValue{URL: &s}
}

// Icon is a record icon; only emoji icons are used here.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// Record is a remote structured object (page) with typed properties.
type Record struct {
	ID         string     `json:"id"`
	Archived   bool       `json:"archived"`
	Icon       *Icon      `json:"icon,omitempty"`
	Properties Properties `json:"properties"`
}

func (r *Record) validate() error {
	if r.ID == "" {
		return fmt.Errorf("record without id")
	}
	return nil
}

// Title returns the record's title text: the content of its single
// title-typed property, regardless of that property's display name.
func (r *Record) Title() string {
	for _, p := range r.Properties {
		if len(p.Title) > 0 {
			return JoinSpans(p.Title)
		}
	}
	return ""
}

// RelationIDs returns the linked record IDs stored under the named
// relation property, in wire order.
func (r *Record) RelationIDs(field string) []string {
	p, ok := r.Properties[field]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(p.Relation))
	for _, ref := range p.Relation {
		ids = append(ids, ref.ID)
	}
	return ids
}

// IconEmoji returns the record's emoji icon, or "" when unset.
func (r *Record) IconEmoji() string {
	if r.Icon == nil {
		return ""
	}
	return r.Icon.Emoji
}

// RecordPage is one page of query results.
type RecordPage struct {
	Results    []Record `json:"results"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor"`
}

// Block kinds used by the sync engine. Legacy preview kinds appear only
// during the one-time cleanup of old top-level blocks.
const (
	BlockTypeParagraph = "paragraph"
	BlockTypeCallout   = "callout"
	BlockTypeImage     = "image"
	BlockTypeEmbed     = "embed"
)

// TextBlock is the payload of paragraph and callout blocks.
type TextBlock struct {
	RichText []TextSpan `json:"rich_text"`
}

// UploadRef references a finished upload from an image block.
type UploadRef struct {
	ID string `json:"id"`
}

// ImageBlock is the payload of image blocks.
type ImageBlock struct {
	Type       string     `json:"type"`
	FileUpload *UploadRef `json:"file_upload,omitempty"`
}

// Block is a content node fetched from the API. The payload pointer
// matching Type is set; others are nil.
type Block struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	HasChildren bool        `json:"has_children"`
	Paragraph   *TextBlock  `json:"paragraph,omitempty"`
	Callout     *TextBlock  `json:"callout,omitempty"`
	Image       *ImageBlock `json:"image,omitempty"`
}

func (b *Block) validate() error {
	if b.ID == "" || b.Type == "" {
		return fmt.Errorf("block without id or type")
	}
	return nil
}

// BlockPage is one page of a block-children listing.
type BlockPage struct {
	Results    []Block `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor string  `json:"next_cursor"`
}

// NewBlock is the create-side shape accepted by AppendChildren.
type NewBlock struct {
	Type      string      `json:"type"`
	Paragraph *TextBlock  `json:"paragraph,omitempty"`
	Callout   *TextBlock  `json:"callout,omitempty"`
	Image     *ImageBlock `json:"image,omitempty"`
}

// NewParagraph builds a paragraph block from text spans.
func NewParagraph(spans ...TextSpan) NewBlock {
	return NewBlock{Type: BlockTypeParagraph, Paragraph: &TextBlock{RichText: spans}}
}

// NewCallout builds a callout block. The engine uses an empty callout as
// the embed container for the rendered image.
func NewCallout(spans ...TextSpan) NewBlock {
	if spans == nil {
		spans = []TextSpan{}
	}
	return NewBlock{Type: BlockTypeCallout, Callout: &TextBlock{RichText: spans}}
}

// NewImageFromUpload builds an image block referencing a finished upload.
func NewImageFromUpload(uploadID string) NewBlock {
	return NewBlock{Type: BlockTypeImage, Image: &ImageBlock{
		Type:       "file_upload",
		FileUpload: &UploadRef{ID: uploadID},
	}}
}

// Upload statuses reported by the two-phase upload protocol.
const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
)

// Upload is the server-side state of a file upload.
type Upload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (u *Upload) validate() error {
	if u.ID == "" || u.Status == "" {
		return fmt.Errorf("upload without id or status")
	}
	return nil
}

// RelationField describes the target of a relation-typed schema field.
type RelationField struct {
	CollectionID string `json:"collection_id"`
}

// SchemaField describes one property in a collection schema.
type SchemaField struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Relation *RelationField `json:"relation,omitempty"`
}

// Schema maps property display names to their definitions.
type Schema map[string]SchemaField

// TitleField returns the display name of the collection's title field.
// Every collection has exactly one; ok is false if the schema lacks it.
func (s Schema) TitleField() (string, bool) {
	for name, f := range s {
		if f.Type == "title" {
			return name, true
		}
	}
	return "", false
}

// SearchResult is one hit of a workspace search.
type SearchResult struct {
	ID     string     `json:"id"`
	Object string     `json:"object"`
	Title  []TextSpan `json:"title"`
}

// TextFilter matches a text-like property.
type TextFilter struct {
	Equals string `json:"equals,omitempty"`
}

// QueryFilter narrows a collection query. A nil filter matches everything
// non-archived.
type QueryFilter struct {
	Property string      `json:"property,omitempty"`
	Title    *TextFilter `json:"title,omitempty"`
}
