// internal/markdown/markdown_test.go
package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"

	"github.com/toluwase/gitdash/internal/model"
)

func TestRewriteLink(t *testing.T) {
	const (
		fullName = "acme/widgets"
		branch   = "main"
	)

	tests := []struct {
		name    string
		href    string
		isImage bool
		want    string
	}{
		{
			name:    "relative image resolves against the raw host",
			href:    "./img/a.png",
			isImage: true,
			want:    "https://raw.githubusercontent.com/acme/widgets/main/img/a.png",
		},
		{
			name: "relative link resolves against the blob view",
			href: "docs/install.md",
			want: "https://github.com/acme/widgets/blob/main/docs/install.md",
		},
		{
			name: "leading dot-slash is stripped",
			href: "./CONTRIBUTING.md",
			want: "https://github.com/acme/widgets/blob/main/CONTRIBUTING.md",
		},
		{
			name: "fragment link passes through",
			href: "#section-1",
			want: "#section-1",
		},
		{
			name: "absolute url passes through",
			href: "https://example.com/x",
			want: "https://example.com/x",
		},
		{
			name:    "absolute image passes through",
			href:    "https://example.com/a.png",
			isImage: true,
			want:    "https://example.com/a.png",
		},
		{
			name: "mailto passes through",
			href: "mailto:dev@example.com",
			want: "mailto:dev@example.com",
		},
		{
			name: "empty href passes through",
			href: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteLink(tt.href, fullName, branch, tt.isImage)
			assert.Equal(t, tt.want, got)

			// Rewriting is idempotent: the output is absolute (or a
			// fragment) and must survive a second pass unchanged.
			assert.Equal(t, got, RewriteLink(got, fullName, branch, tt.isImage))
		})
	}
}

func TestRender_RewritesDestinations(t *testing.T) {
	source := []byte(`# Widgets

![logo](./img/logo.png)

See the [install guide](docs/install.md), [the site](https://example.com/x)
and [usage](#usage).
`)

	html, err := Render(source, "acme/widgets", "main")
	require.NoError(t, err)

	assert.Contains(t, html, `src="https://raw.githubusercontent.com/acme/widgets/main/img/logo.png"`)
	assert.Contains(t, html, `href="https://github.com/acme/widgets/blob/main/docs/install.md"`)
	assert.Contains(t, html, `href="https://example.com/x"`)
	// In-page anchors stay untouched so heading navigation keeps working.
	assert.Contains(t, html, `href="#usage"`)
}

func TestExtractTOC(t *testing.T) {
	t.Run("collects levels one through three in document order", func(t *testing.T) {
		source := []byte(`# Title

intro

## Install

### From source

#### Too deep

## Usage
`)
		toc := ExtractTOC(source)

		require.Len(t, toc, 4)
		assert.Equal(t, model.TocEntry{ID: "title", Text: "Title", Level: 1}, toc[0])
		assert.Equal(t, model.TocEntry{ID: "install", Text: "Install", Level: 2}, toc[1])
		assert.Equal(t, model.TocEntry{ID: "from-source", Text: "From source", Level: 3}, toc[2])
		assert.Equal(t, model.TocEntry{ID: "usage", Text: "Usage", Level: 2}, toc[3])
	})

	t.Run("empty body yields an empty outline", func(t *testing.T) {
		assert.Empty(t, ExtractTOC(nil))
		assert.Empty(t, ExtractTOC([]byte("   \n\t\n")))
	})

	t.Run("body without headings yields an empty outline", func(t *testing.T) {
		assert.Empty(t, ExtractTOC([]byte("just a paragraph\n\nand another")))
	})

	t.Run("synthesizes ids for headings without anchors", func(t *testing.T) {
		// Parse without auto heading IDs so no anchors are assigned.
		source := []byte("# First\n\n## Second\n")
		md := goldmark.New()
		root := md.Parser().Parse(text.NewReader(source))

		toc := extractTOC(root, source)

		require.Len(t, toc, 2)
		assert.Equal(t, "heading-0", toc[0].ID)
		assert.Equal(t, "heading-1", toc[1].ID)
		assert.Equal(t, "First", toc[0].Text)
	})
}
