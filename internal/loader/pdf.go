package loader

import (
	"bytes"
	"fmt"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/ledongthuc/pdf"
)

// extractPDF returns one record per page that has text.
func extractPDF(name string, data []byte) (records []domain.Record, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		records = append(records, domain.Record{Source: name, Page: i, Text: text})
	}
	return records, nil
}
