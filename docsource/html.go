// CLAUDE:SUMMARY HTML document loader: sanitize, collect block elements, paginate, per-page markdown.
package docsource

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLConfig controls HTML pagination.
type HTMLConfig struct {
	// BlocksPerPage is how many block elements form one synthetic page.
	// HTML has no native pages; fixed-size chunks keep page numbers stable
	// for citation hints. Default: 24.
	BlocksPerPage int
}

func (c *HTMLConfig) defaults() {
	if c.BlocksPerPage <= 0 {
		c.BlocksPerPage = 24
	}
}

// LoadHTML parses an HTML file into a static Source.
func LoadHTML(path string, cfg HTMLConfig) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadHTMLBytes(data, cfg)
}

// LoadHTMLBytes sanitizes the document, collects its block-level elements as
// fragments, and splits them into fixed-size synthetic pages. Each page also
// gets a markdown rendition for chat hosts.
func LoadHTMLBytes(data []byte, cfg HTMLConfig) (*Source, error) {
	cfg.defaults()

	title := htmlTitle(data)

	// Scripts, styles and event handlers never reach the fragment set.
	clean := bluemonday.UGCPolicy().SanitizeBytes(data)

	doc, err := html.Parse(bytes.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("docsource: html parse: %w", err)
	}

	blocks := collectBlocks(doc)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("docsource: no text content in html document")
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	var pages [][]string
	var markdown []string
	for start := 0; start < len(blocks); start += cfg.BlocksPerPage {
		end := min(start+cfg.BlocksPerPage, len(blocks))
		chunk := blocks[start:end]

		texts := make([]string, len(chunk))
		var rawHTML strings.Builder
		for i, b := range chunk {
			texts[i] = b.text
			rawHTML.WriteString(b.html)
		}
		pages = append(pages, texts)

		md, err := conv.ConvertString(rawHTML.String())
		if err != nil {
			md = strings.Join(texts, "\n\n")
		}
		markdown = append(markdown, strings.TrimSpace(md))
	}

	return newSource(title, pages, markdown), nil
}

type block struct {
	text string
	html string
}

// blockAtoms are the elements treated as one fragment each. Tables stay whole
// so their markdown rendition keeps rows together.
var blockAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
	atom.P: true, atom.Li: true, atom.Pre: true,
	atom.Blockquote: true, atom.Table: true,
}

// collectBlocks walks the DOM in document order. Descent stops at a collected
// block so nested structure is not double-counted.
func collectBlocks(n *html.Node) []block {
	var out []block
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
			text := collapseSpace(nodeText(n))
			if text != "" {
				out = append(out, block{text: text, html: renderNode(n)})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// htmlTitle reads <title> from the unsanitized document, since sanitization
// drops the head.
func htmlTitle(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = collapseSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
