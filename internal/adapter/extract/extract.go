package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	"docshelf/internal/domain"
)

// Extractor converts supported file formats into plain text suitable for
// chunking. Markdown is rendered to HTML first so both paths share the
// same tag stripping; PDF and scanned formats are out of scope and come
// in through external OCR as plain text.
type Extractor struct {
	md goldmark.Markdown
}

func NewExtractor() *Extractor {
	return &Extractor{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		),
	}
}

// Supports reports whether the filename's extension has an extraction path.
func (e *Extractor) Supports(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text", ".md", ".markdown", ".html", ".htm", ".csv", ".json":
		return true
	}
	return false
}

// Extract converts raw file bytes to plain text. Unsupported extensions
// return domain.ErrUnsupportedFormat.
func (e *Extractor) Extract(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return normalizeWhitespace(string(data)), nil
	case ".md", ".markdown":
		return e.markdownToText(data)
	case ".html", ".htm":
		return htmlToText(bytes.NewReader(data))
	case ".csv":
		return csvToText(data)
	case ".json":
		return jsonToText(data), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

func (e *Extractor) markdownToText(data []byte) (string, error) {
	var rendered bytes.Buffer
	if err := e.md.Convert(data, &rendered); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return htmlToText(&rendered)
}

func htmlToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, footer, aside").Remove()

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		writeNodeText(node, &b)
	}
	return normalizeWhitespace(b.String()), nil
}

// writeNodeText walks the node tree collecting text, separating block
// elements with newlines so adjacent headings and paragraphs do not fuse
// into one run-on token stream.
func writeNodeText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type != html.ElementNode && n.Type != html.DocumentNode {
		return
	}

	block := isBlockElement(n.Data)
	if block {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(c, b)
	}
	if block {
		b.WriteString("\n")
	}
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6",
		"li", "ul", "ol", "table", "tr", "blockquote", "pre", "br", "hr", "section", "article":
		return true
	}
	return false
}

func csvToText(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv: %w", err)
		}
		lines = append(lines, strings.Join(record, ", "))
	}
	return strings.Join(lines, "\n"), nil
}

// jsonToText re-indents JSON so nested values land on their own lines.
// Invalid JSON passes through untouched; the content is still searchable.
func jsonToText(data []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return string(data)
	}
	return out.String()
}

// normalizeWhitespace trims trailing space per line and collapses runs of
// blank lines to one.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
