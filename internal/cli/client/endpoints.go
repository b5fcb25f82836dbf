package client

import (
	"net/url"
	"strconv"

	"github.com/cloo-solutions/studyrag/internal/domain"
	"github.com/cloo-solutions/studyrag/internal/pagination"
	"github.com/cloo-solutions/studyrag/internal/service"
)

// AskResult is the body of POST /answer.
type AskResult struct {
	SessionID string `json:"session_id"`
	domain.Answer
}

// ChunkResult is the body of POST /chunks.
type ChunkResult struct {
	Intent domain.Intent  `json:"intent"`
	Chunks []domain.Chunk `json:"chunks"`
}

// ExerciseResult is the body of POST /exercises.
type ExerciseResult struct {
	Exercises []domain.Exercise `json:"exercises"`
	Preview   string            `json:"preview"`
}

type SessionResult struct {
	SessionID string           `json:"session_id"`
	History   []domain.Message `json:"history"`
}

type LoadResult struct {
	Key    string `json:"key"`
	Loaded int    `json:"loaded"`
}

func (c *APIClient) Health() error {
	_, err := c.Get("/health")
	return err
}

func (c *APIClient) Ask(question, intent, sessionID string) (*AskResult, error) {
	resp, err := c.Post("/answer", map[string]string{
		"question":   question,
		"intent":     intent,
		"session_id": sessionID,
	})
	if err != nil {
		return nil, err
	}
	var out AskResult
	return &out, decode(resp, &out)
}

func (c *APIClient) Session(sessionID string) (*SessionResult, error) {
	resp, err := c.Get("/sessions/" + url.PathEscape(sessionID))
	if err != nil {
		return nil, err
	}
	var out SessionResult
	return &out, decode(resp, &out)
}

func (c *APIClient) ClearSession(sessionID string) error {
	_, err := c.Delete("/sessions/" + url.PathEscape(sessionID))
	return err
}

func (c *APIClient) Chunk(text, intent string) (*ChunkResult, error) {
	resp, err := c.Post("/chunks", map[string]string{"text": text, "intent": intent})
	if err != nil {
		return nil, err
	}
	var out ChunkResult
	return &out, decode(resp, &out)
}

func (c *APIClient) SplitInfo(text, intent string) (*service.SplitInfo, error) {
	resp, err := c.Post("/chunks/info", map[string]string{"text": text, "intent": intent})
	if err != nil {
		return nil, err
	}
	var out service.SplitInfo
	return &out, decode(resp, &out)
}

func (c *APIClient) AddDocument(path, intent string) (*service.AddDocumentOutput, error) {
	resp, err := c.UploadDocument(path, intent)
	if err != nil {
		return nil, err
	}
	var out service.AddDocumentOutput
	return &out, decode(resp, &out)
}

func (c *APIClient) Documents(cursor string, limit int) (*pagination.PageResult[domain.Document], error) {
	resp, err := c.Get("/documents" + pageQuery(cursor, limit))
	if err != nil {
		return nil, err
	}
	var out pagination.PageResult[domain.Document]
	return &out, decode(resp, &out)
}

func (c *APIClient) Stats() (*domain.IndexStats, error) {
	resp, err := c.Get("/index/stats")
	if err != nil {
		return nil, err
	}
	var out domain.IndexStats
	return &out, decode(resp, &out)
}

func (c *APIClient) ClearIndex() error {
	_, err := c.Delete("/index")
	return err
}

func (c *APIClient) Exercises(content string, documentIDs []string) (*ExerciseResult, error) {
	resp, err := c.Post("/exercises", map[string]interface{}{
		"content":      content,
		"document_ids": documentIDs,
	})
	if err != nil {
		return nil, err
	}
	var out ExerciseResult
	return &out, decode(resp, &out)
}

func (c *APIClient) TrainingStats() (*domain.TrainingStats, error) {
	resp, err := c.Get("/training/stats")
	if err != nil {
		return nil, err
	}
	var out domain.TrainingStats
	return &out, decode(resp, &out)
}

func (c *APIClient) TrainingExport(format, name string) (*service.TrainingExport, error) {
	resp, err := c.Post("/training/export", map[string]string{"format": format, "name": name})
	if err != nil {
		return nil, err
	}
	var out service.TrainingExport
	return &out, decode(resp, &out)
}

func (c *APIClient) TrainingExports() ([]domain.StoredObject, error) {
	resp, err := c.Get("/training/exports")
	if err != nil {
		return nil, err
	}
	var out []domain.StoredObject
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) TrainingLoad(key string) (*LoadResult, error) {
	resp, err := c.Post("/training/load", map[string]string{"key": key})
	if err != nil {
		return nil, err
	}
	var out LoadResult
	return &out, decode(resp, &out)
}

func (c *APIClient) EnqueueJob(path, intent string) (*domain.IngestJob, error) {
	resp, err := c.Post("/jobs", map[string]string{"path": path, "intent": intent})
	if err != nil {
		return nil, err
	}
	var out domain.IngestJob
	return &out, decode(resp, &out)
}

func (c *APIClient) Jobs(cursor string, limit int) (*pagination.PageResult[*domain.IngestJob], error) {
	resp, err := c.Get("/jobs" + pageQuery(cursor, limit))
	if err != nil {
		return nil, err
	}
	var out pagination.PageResult[*domain.IngestJob]
	return &out, decode(resp, &out)
}

func pageQuery(cursor string, limit int) string {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
