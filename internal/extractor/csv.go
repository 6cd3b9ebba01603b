package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/contractlens/docstruct/internal/docmodel"
)

// CSVExtractor handles CSV files. Rows are grouped into table elements so
// downstream analysis sees manageable fragments.
type CSVExtractor struct{}

const csvBatchSize = 20

func (e *CSVExtractor) Extract(r io.Reader, filename string) (*docmodel.ExtractedDocument, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return newDocument(filename, nil, 1), nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	var elements []docmodel.TextElement
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var text strings.Builder
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}
		elements = append(elements, docmodel.TextElement{
			Kind:    docmodel.KindTable,
			Content: strings.TrimSpace(text.String()),
		})
	}
	return newDocument(filename, elements, 1), nil
}
