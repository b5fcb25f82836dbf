// Package loader extracts plain text records from study documents.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxBytes bounds a single document.
const DefaultMaxBytes = 20 << 20

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// Loader turns a file into records: one per PDF page, one for any other
// format. Text is NFC-normalised with Unix line endings.
type Loader struct {
	maxBytes int64
}

func New() *Loader {
	return &Loader{maxBytes: DefaultMaxBytes}
}

func NewWithLimit(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Loader{maxBytes: maxBytes}
}

// Load reads and extracts the file at path.
func (l *Loader) Load(path string) ([]domain.Record, error) {
	if _, err := domain.FormatFromPath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Size() > l.maxBytes {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("%s is %d bytes, limit is %d", filepath.Base(path), info.Size(), l.maxBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.LoadBytes(filepath.Base(path), data)
}

// LoadBytes extracts an in-memory document. name selects the format.
func (l *Loader) LoadBytes(name string, data []byte) ([]domain.Record, error) {
	format, err := domain.FormatFromPath(name)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, domain.NewDomainError(domain.ErrCodeValidation,
			fmt.Sprintf("%s is %d bytes, limit is %d", name, len(data), l.maxBytes))
	}

	var records []domain.Record
	switch format {
	case domain.FormatText, domain.FormatMarkdown:
		text, err := decodeText(data)
		if err != nil {
			return nil, unreadable(format, err)
		}
		records = []domain.Record{{Source: name, Text: text}}
	case domain.FormatPDF:
		records, err = extractPDF(name, data)
	case domain.FormatDOCX:
		var text string
		text, err = extractDOCX(data)
		records = []domain.Record{{Source: name, Text: text}}
	case domain.FormatHTML:
		var text string
		text, err = extractHTML(data)
		records = []domain.Record{{Source: name, Text: text}}
	}
	if err != nil {
		return nil, unreadable(format, err)
	}

	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		rec.Text = clean(rec.Text)
		if rec.Text == "" {
			continue
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "no text could be extracted from "+name)
	}
	return out, nil
}

// ContentType returns the MIME type stored with a raw upload.
func ContentType(format domain.DocumentFormat) string {
	switch format {
	case domain.FormatPDF:
		return "application/pdf"
	case domain.FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case domain.FormatHTML:
		return "text/html; charset=utf-8"
	case domain.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func unreadable(format domain.DocumentFormat, err error) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, fmt.Sprintf("failed to read %s document", format), err)
}

func clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFC.String(text)
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
