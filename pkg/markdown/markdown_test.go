package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_BasicFormatting(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("**bold** and *italic*")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
}

func TestRender_Headings(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("## A chapter")
	require.NoError(t, err)
	assert.Contains(t, out, "A chapter")
	assert.Contains(t, out, "<h2")
}

func TestRender_Links(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("[Goodreads](https://example.com/book)")
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://example.com/book"`)
	assert.Contains(t, out, "Goodreads")
}

func TestRender_RawHTMLNeverPassesThrough(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(`before <script>alert("x")</script> after`)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "before")
	assert.Contains(t, out, "after")
}

func TestRender_UnsafeLinkSchemesStripped(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(`[click](javascript:alert(1))`)
	require.NoError(t, err)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "click")
}

func TestRender_InlineEventHandlersStripped(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(`<img src="x" onerror="alert(1)">`)
	require.NoError(t, err)
	assert.NotContains(t, out, "onerror")
}

func TestRender_GFMStrikethrough(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("~~overrated~~")
	require.NoError(t, err)
	assert.Contains(t, out, "<del>overrated</del>")
}

func TestRender_Empty(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("")
	require.NoError(t, err)
	assert.Empty(t, out)
}
