package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// DocumentFormat is a supported source file format.
type DocumentFormat string

const (
	FormatText     DocumentFormat = "txt"
	FormatMarkdown DocumentFormat = "md"
	FormatPDF      DocumentFormat = "pdf"
	FormatDOCX     DocumentFormat = "docx"
	FormatHTML     DocumentFormat = "html"
)

// SupportedExtensions lists the file extensions the loader accepts.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".pdf", ".docx", ".html", ".htm"}
}

// FormatFromPath resolves the format from a file extension.
func FormatFromPath(path string) (DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", NewDomainError(ErrCodeUnsupportedFormat, "unsupported file format: "+filepath.Ext(path))
	}
}

// Record is a unit of extracted text, typically one page.
type Record struct {
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Text   string `json:"text"`
}

// Document is an ingested source file.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Format     DocumentFormat `json:"format"`
	Intent     Intent         `json:"intent"`
	ChunkCount int            `json:"chunk_count"`
	CharCount  int            `json:"char_count"`
	Content    string         `json:"content,omitempty"`
	ObjectKey  string         `json:"object_key,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
