// internal/markdown/markdown.go
package markdown

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/toluwase/gitdash/internal/model"
)

const (
	rawHost = "https://raw.githubusercontent.com"
	webHost = "https://github.com"

	// Headings deeper than this are omitted from the outline.
	tocMaxLevel = 3
)

// RewriteLink normalizes a relative href or src found in repository markdown
// into an absolute, branch-correct URL. Absolute URLs (any scheme, including
// mailto) and fragment-only links pass through unchanged, which also makes
// the function idempotent. Images resolve against the raw-content host,
// everything else against the blob view.
func RewriteLink(href, fullName, branch string, isImage bool) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return href
	}
	if u, err := url.Parse(href); err != nil || u.Scheme != "" {
		return href
	}

	path := strings.TrimPrefix(href, "./")
	if isImage {
		return fmt.Sprintf("%s/%s/%s/%s", rawHost, fullName, branch, path)
	}
	return fmt.Sprintf("%s/%s/blob/%s/%s", webHost, fullName, branch, path)
}

func newEngine() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Render converts README markdown to HTML with every link and image
// destination passed through RewriteLink and heading anchors assigned, so the
// host can display the document without further processing.
func Render(source []byte, fullName, branch string) (string, error) {
	md := newEngine()
	root := md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = []byte(RewriteLink(string(node.Destination), fullName, branch, false))
		case *gmast.Image:
			node.Destination = []byte(RewriteLink(string(node.Destination), fullName, branch, true))
		}
		return gmast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, root); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ExtractTOC derives the heading outline (levels 1 through 3) of README
// markdown in document order. Anchors come from the assigned heading IDs,
// with a deterministic heading-{index} fallback. The outline is derived on
// every call and never persisted.
func ExtractTOC(source []byte) []model.TocEntry {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil
	}

	md := newEngine()
	root := md.Parser().Parse(text.NewReader(source), parser.WithContext(parser.NewContext()))
	return extractTOC(root, source)
}

func extractTOC(root gmast.Node, source []byte) []model.TocEntry {
	var entries []model.TocEntry
	index := 0
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level > tocMaxLevel {
			return gmast.WalkContinue, nil
		}
		entries = append(entries, model.TocEntry{
			ID:    headingID(h, index),
			Text:  headingText(h, source),
			Level: h.Level,
		})
		index++
		return gmast.WalkSkipChildren, nil
	})
	return entries
}

func headingID(h *gmast.Heading, index int) string {
	if v, ok := h.AttributeString("id"); ok {
		switch id := v.(type) {
		case []byte:
			if len(id) > 0 {
				return string(id)
			}
		case string:
			if id != "" {
				return id
			}
		}
	}
	return fmt.Sprintf("heading-%d", index)
}

func headingText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*gmast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
