package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/4ug-aug/presentor/internal/assets"
	"github.com/4ug-aug/presentor/internal/deck"
)

func newTestExecutor(t *testing.T) (*Executor, *deck.Document, *assets.Store) {
	t.Helper()
	doc := deck.NewDocument(deck.Presentation{Title: "Quarterly Review"})
	store := assets.NewStore(filepath.Join(t.TempDir(), "images"), "/images")
	return NewExecutor(NewRegistry(doc, store), nil), doc, store
}

func TestExecuteSlideLifecycle(t *testing.T) {
	exec, doc, _ := newTestExecutor(t)
	ctx := context.Background()

	res := exec.Execute(ctx, "create_slide", map[string]interface{}{"html": "<h1>Intro</h1>", "notes": "welcome"})
	require.Contains(t, res, "index 0")
	require.Equal(t, 1, doc.Len())

	res = exec.Execute(ctx, "update_slide", map[string]interface{}{"slide_index": float64(0), "html": "<h1>Updated</h1>"})
	require.Contains(t, res, "Updated slide at index 0")
	slide, err := doc.Slide(0)
	require.NoError(t, err)
	require.Equal(t, "<h1>Updated</h1>", slide.HTML)
	require.Equal(t, "welcome", slide.Notes, "omitted notes must be preserved")

	res = exec.Execute(ctx, "delete_slide", map[string]interface{}{"slide_index": float64(0)})
	require.Contains(t, res, "Deleted slide at index 0")
	require.Equal(t, 0, doc.Len())
}

func TestExecuteNeverReturnsFailure(t *testing.T) {
	exec, _, _ := newTestExecutor(t)
	ctx := context.Background()

	res := exec.Execute(ctx, "teleport", map[string]interface{}{})
	require.Equal(t, "Unknown tool: teleport", res)

	res = exec.Execute(ctx, "delete_slide", map[string]interface{}{"slide_index": float64(7)})
	require.True(t, strings.HasPrefix(res, "Error executing tool: "), "got %q", res)

	res = exec.Execute(ctx, "update_slide", map[string]interface{}{"html": "<p>x</p>"})
	require.True(t, strings.HasPrefix(res, "Error executing tool: "), "got %q", res)
}

func TestExecuteGetSlideInfo(t *testing.T) {
	exec, doc, _ := newTestExecutor(t)
	ctx := context.Background()
	doc.CreateSlide("<h1>One</h1>", "first")
	doc.CreateSlide("<h1>Two</h1>", "")

	res := exec.Execute(ctx, "get_slide_info", map[string]interface{}{"slide_index": float64(0)})
	require.Contains(t, res, "<h1>One</h1>", "markup must round-trip verbatim")
	require.NotContains(t, res, `\u003c`, "markup must not be JSON HTML-escaped")
	require.Contains(t, res, "first")

	res = exec.Execute(ctx, "get_slide_info", map[string]interface{}{})
	require.Contains(t, res, "2 slides")
	require.Contains(t, res, "Quarterly Review")
}

func TestExecuteListAvailableImagesIsFresh(t *testing.T) {
	exec, _, store := newTestExecutor(t)
	ctx := context.Background()

	res := exec.Execute(ctx, "list_available_images", map[string]interface{}{})
	require.Contains(t, res, "No images available")

	src := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))
	_, err := store.Save(src)
	require.NoError(t, err)

	res = exec.Execute(ctx, "list_available_images", map[string]interface{}{})
	require.Contains(t, res, "diagram.png")
	require.Contains(t, res, "/images/diagram.png")
}
