package extractor

import (
	"bufio"
	"io"
	"strings"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// TextExtractor handles plain text files. Paragraphs become untyped text
// elements; structure discovery is entirely the detector's job.
type TextExtractor struct{}

func (e *TextExtractor) Extract(r io.Reader, filename string) (*docmodel.ExtractedDocument, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var elements []docmodel.TextElement
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		elements = append(elements, docmodel.TextElement{
			Kind:    docmodel.KindText,
			Content: current.String(),
		})
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return newDocument(filename, elements, 1), nil
}
