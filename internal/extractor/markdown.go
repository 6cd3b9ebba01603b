package extractor

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// MarkdownExtractor handles Markdown files using goldmark. Headings map to
// header elements with their level; lists and other blocks become typed
// elements in document order.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*docmodel.ExtractedDocument, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var elements []docmodel.TextElement
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := string(node.Text(src))
			if strings.TrimSpace(title) == "" {
				continue
			}
			elements = append(elements, docmodel.TextElement{
				Kind:    docmodel.KindHeader,
				Content: title,
				Level:   node.Level,
			})
		case *ast.List:
			if t := blockText(n, src); t != "" {
				elements = append(elements, docmodel.TextElement{
					Kind:    docmodel.KindList,
					Content: t,
				})
			}
		default:
			if t := blockText(n, src); t != "" {
				elements = append(elements, docmodel.TextElement{
					Kind:    docmodel.KindParagraph,
					Content: t,
				})
			}
		}
	}
	return newDocument(filename, elements, 1), nil
}

// blockText gets the text content of a goldmark AST node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(blockText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
