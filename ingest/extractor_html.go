package ingest

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var _ Extractor = (*HTMLExtractor)(nil)

// HTMLExtractor pulls the readable article text out of an HTML page.
// Boilerplate (navigation, ads, footers) is removed by readability; when
// readability cannot find an article the whole page text is used instead.
type HTMLExtractor struct {
	// BaseURL resolves relative links during readability parsing. Optional.
	BaseURL string
}

// NewHTMLExtractor creates an HTML extractor.
func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (e *HTMLExtractor) Extract(content []byte) (string, error) {
	var base *url.URL
	if e.BaseURL != "" {
		base, _ = url.Parse(e.BaseURL)
	}

	article, err := readability.FromReader(bytes.NewReader(content), base)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return normalizeSpace(article.TextContent), nil
	}

	return fullPageText(content)
}

// fullPageText walks the HTML tree and concatenates all visible text,
// skipping script and style subtrees.
func fullPageText(content []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			b.WriteByte('\n')
		}
	}
	walk(root)

	return normalizeSpace(b.String()), nil
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "br", "hr", "h1", "h2", "h3", "h4", "h5", "h6",
		"li", "ul", "ol", "table", "tr", "blockquote", "pre",
		"section", "article", "header", "footer", "nav", "main":
		return true
	}
	return false
}

// normalizeSpace collapses runs of whitespace into single spaces while
// keeping paragraph breaks as newlines.
func normalizeSpace(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	newline := false
	for _, r := range text {
		if r == '\n' {
			newline = true
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if b.Len() > 0 {
			if newline {
				b.WriteByte('\n')
			} else if space {
				b.WriteByte(' ')
			}
		}
		space = false
		newline = false
		b.WriteRune(r)
	}
	return b.String()
}
