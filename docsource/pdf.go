// CLAUDE:SUMMARY PDF document loader: pdfcpu content streams parsed into one fragment per text line.
package docsource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// LoadPDF parses a PDF file into a static Source, one page per PDF page and
// one fragment per content-stream text line. Pages without extractable text
// stay present but empty, so page numbers line up with the original document.
func LoadPDF(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("docsource: pdf read: %w", err)
	}

	var title string
	anyText := false
	pages := make([][]string, 0, pctx.PageCount)
	markdown := make([]string, 0, pctx.PageCount)

	for nr := 1; nr <= pctx.PageCount; nr++ {
		lines := pdfPageLines(pctx, nr)
		if len(lines) > 0 {
			anyText = true
			if title == "" {
				title = lines[0]
			}
		}
		pages = append(pages, lines)
		markdown = append(markdown, strings.Join(lines, "\n\n"))
	}

	if !anyText {
		return nil, fmt.Errorf("docsource: no text content in %s", path)
	}
	return newSource(title, pages, markdown), nil
}

// pdfPageLines extracts the text lines of one page from its content stream.
func pdfPageLines(pctx *model.Context, pageNr int) []string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return streamLines(data)
}

// pdfLiteralRe matches PDF string literals: (text here)
var pdfLiteralRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// streamLines walks the content-stream operators that carry or reposition
// text. Tj and TJ append to the current line; Td, TD, T* and ' start a new
// one. Anything else (graphics, fonts, matrices) is ignored.
func streamLines(data []byte) []string {
	var lines []string
	var cur strings.Builder

	flush := func() {
		if line := collapseSpace(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	for _, op := range bytes.Split(data, []byte{'\n'}) {
		op = bytes.TrimSpace(op)
		if len(op) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(op, []byte("Tj")), bytes.HasSuffix(op, []byte("TJ")):
			for _, m := range pdfLiteralRe.FindAllSubmatch(op, -1) {
				cur.WriteString(decodePDFLiteral(m[1]))
			}
		case bytes.HasSuffix(op, []byte("'")) && bytes.Contains(op, []byte("(")):
			flush()
			for _, m := range pdfLiteralRe.FindAllSubmatch(op, -1) {
				cur.WriteString(decodePDFLiteral(m[1]))
			}
		case bytes.HasSuffix(op, []byte("Td")), bytes.HasSuffix(op, []byte("TD")), bytes.Equal(op, []byte("T*")):
			flush()
		}
	}
	flush()
	return lines
}

// decodePDFLiteral resolves backslash escapes inside a PDF string literal,
// including up-to-three-digit octal codes.
func decodePDFLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				break
			}
			val := int(c - '0')
			for d := 0; d < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; d++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}
