package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// CleanMarkdown trims the input and strips one outer code fence
// (```markdown ... ```) if the whole document is wrapped in it.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") && len(cleaned) > 6 {
		cleaned = strings.TrimPrefix(cleaned, "```markdown")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// RenderHTML converts report Markdown into a standalone HTML page.
func RenderHTML(title, markdown string) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(CleanMarkdown(markdown)), &body); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

// Outline lists the document's headings in order, prefixed by one '#' per
// level.
func Outline(markdown string) []string {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var out []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		out = append(out, strings.Repeat("#", h.Level)+" "+inlineText(h, source))
		return ast.WalkSkipChildren, nil
	})
	return out
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(inlineText(c, source))
	}
	return b.String()
}
