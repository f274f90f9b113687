// Package markdown renders user authored markdown into HTML that is safe to
// inject into admin pages.
package markdown

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Render converts markdown to sanitized HTML. Script tags, event handlers
// and javascript: URLs never survive.
func Render(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		zap.L().Warn("markdown render failed", zap.Error(err))
		return template.HTML(policy.Sanitize(template.HTMLEscapeString(source)))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitized above
}

// Excerpt returns the plain text of the first n runes of the rendered source,
// used for list columns.
func Excerpt(source string, n int) string {
	text := bluemonday.StrictPolicy().Sanitize(string(Render(source)))
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if n > 0 && len(r) > n {
		return string(r[:n]) + "…"
	}
	return text
}
