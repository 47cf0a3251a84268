package diagnostics

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Save("111-2222", "direct_fields_missing", "<html>page</html>")

	data, err := os.ReadFile(filepath.Join(dir, "111-2222_direct_fields_missing.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html>page</html>", string(data))
}

func TestSaveSanitizesNames(t *testing.T) {
	dir := t.TempDir()
	s := NewSaver(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Save("ab/cd", "search http 500", "x")

	_, err := os.Stat(filepath.Join(dir, "ab-cd_search-http-500.html"))
	require.NoError(t, err)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "failed_pages")
	s := NewSaver(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Save("111-2222", "suffix", "x")

	_, err := os.Stat(filepath.Join(dir, "111-2222_suffix.html"))
	require.NoError(t, err)
}

func TestEmptyDirDisablesSaving(t *testing.T) {
	s := NewSaver("", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or create anything.
	s.Save("111-2222", "suffix", "x")
}
