package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sketchsync/internal/models"
)

var sketchExtensions = []string{".png", ".jpg", ".jpeg"}

// isSketchFile reports whether path names a raster sketch the agent tracks.
func isSketchFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sketchExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// titleFromPath derives the document title from a sketch file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// sketchBaseName maps a document to its extension-less file name in the
// sketch directory. Path separators in titles would escape the directory,
// so they are replaced; documents with empty titles fall back to their ID.
func sketchBaseName(snap models.Snapshot) string {
	title := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '-'
		}
		return r
	}, snap.Title)
	if strings.TrimSpace(title) == "" {
		title = snap.ID
	}
	return title
}

// writeSketchFile materializes an imported document as a file so it can be
// edited locally. Existing files are never overwritten.
func (app *App) writeSketchFile(ctx context.Context, doc *models.Document) {
	snap := doc.Snapshot()
	path := filepath.Join(app.sketchDir, sketchBaseName(snap)+".png")

	if _, err := os.Stat(path); err == nil {
		app.log.Warn(ctx, "sketch file already exists, not overwriting", "doc", snap.ID, "path", path)
		return
	}
	if err := os.WriteFile(path, snap.Drawing, 0o660); err != nil {
		app.log.Warn(ctx, "failed to write sketch file", "doc", snap.ID, "error", err.Error())
		return
	}
	app.log.Info(ctx, "materialized imported sketch", "doc", snap.ID, "path", path)
}

// removeSketchFile deletes the files of a document that was removed because
// its remote record disappeared. The extension the sketch arrived with is
// not tracked, so every known one is tried. Best effort: the store row is
// already gone.
func (app *App) removeSketchFile(ctx context.Context, doc *models.Document) {
	snap := doc.Snapshot()
	base := filepath.Join(app.sketchDir, sketchBaseName(snap))

	for _, ext := range sketchExtensions {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			app.log.Warn(ctx, "failed to remove sketch file", "doc", snap.ID, "error", err.Error())
		}
	}
}
