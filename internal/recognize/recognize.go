// Package recognize extracts text from rendered drawings. Recognition is
// best-effort: a recognizer reduces every internal failure to an empty
// result so the sync pipeline never fails on it.
package recognize

import "context"

// Recognizer extracts text from a raster image.
type Recognizer interface {
	// Recognize returns the text found in image, or "" when nothing was
	// recognized or recognition failed.
	Recognize(ctx context.Context, image []byte) string
}

// Noop recognizes nothing. It is the default until a real OCR backend is
// configured.
type Noop struct{}

func (Noop) Recognize(ctx context.Context, image []byte) string {
	return ""
}
