package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/models"
)

func TestIsSketchFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"harbor.png", true},
		{"harbor.PNG", true},
		{"pier.jpg", true},
		{"pier.JPEG", true},
		{"/deep/dir/pier.jpeg", true},
		{"notes.txt", false},
		{"archive.tar.gz", false},
		{"noext", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSketchFile(tt.path), tt.path)
	}
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "harbor", titleFromPath("/sketches/harbor.png"))
	assert.Equal(t, "pier.v2", titleFromPath("pier.v2.jpg"))
	assert.Equal(t, "noext", titleFromPath("noext"))
}

func TestSketchBaseName(t *testing.T) {
	tests := []struct {
		name string
		snap models.Snapshot
		want string
	}{
		{"plain title", models.Snapshot{ID: "d1", Title: "harbor"}, "harbor"},
		{"separators replaced", models.Snapshot{ID: "d1", Title: `a/b\c`}, "a-b-c"},
		{"empty title falls back to id", models.Snapshot{ID: "d1", Title: ""}, "d1"},
		{"blank title falls back to id", models.Snapshot{ID: "d1", Title: "   "}, "d1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sketchBaseName(tt.snap))
		})
	}
}

func newFilesApp(t *testing.T) *App {
	t.Helper()
	return &App{log: logging.NewNopLogger(), sketchDir: t.TempDir()}
}

func TestWriteSketchFile_MaterializesDrawing(t *testing.T) {
	app := newFilesApp(t)
	doc := &models.Document{ID: "d1", Title: "harbor", Drawing: []byte("png bytes")}

	app.writeSketchFile(context.Background(), doc)

	data, err := os.ReadFile(filepath.Join(app.sketchDir, "harbor.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
}

func TestWriteSketchFile_NeverOverwrites(t *testing.T) {
	app := newFilesApp(t)
	path := filepath.Join(app.sketchDir, "harbor.png")
	require.NoError(t, os.WriteFile(path, []byte("local edit"), 0o660))

	doc := &models.Document{ID: "d1", Title: "harbor", Drawing: []byte("remote copy")}
	app.writeSketchFile(context.Background(), doc)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("local edit"), data)
}

func TestRemoveSketchFile_TriesEveryExtension(t *testing.T) {
	app := newFilesApp(t)
	for _, name := range []string{"harbor.png", "harbor.jpg", "keep.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(app.sketchDir, name), []byte("x"), 0o660))
	}

	doc := &models.Document{ID: "d1", Title: "harbor"}
	app.removeSketchFile(context.Background(), doc)

	assert.NoFileExists(t, filepath.Join(app.sketchDir, "harbor.png"))
	assert.NoFileExists(t, filepath.Join(app.sketchDir, "harbor.jpg"))
	assert.FileExists(t, filepath.Join(app.sketchDir, "keep.png"))
}

func TestRemoveSketchFile_MissingFilesAreFine(t *testing.T) {
	app := newFilesApp(t)
	app.removeSketchFile(context.Background(), &models.Document{ID: "d1", Title: "gone"})
}
