package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

var errInvalidBody = domain.NewDomainError(domain.ErrCodeValidation, "invalid request body")

// decodeJSON reads an optional JSON body. An empty body leaves v untouched.
// A body cut off by MaxBodyBytes reports ErrPayloadTooLarge.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	case errors.As(err, &tooLarge):
		return domain.ErrPayloadTooLarge
	default:
		return errInvalidBody
	}
}

// parseIntent accepts an empty value as the default intent. Unlike the
// chunking and prompt tables, which fall back to factual, the HTTP surface
// rejects an unknown intent with a VALIDATION error (400).
func parseIntent(raw string) (domain.Intent, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.DefaultIntent, nil
	}
	return domain.ParseIntent(strings.ToLower(raw))
}

// pageParams reads the limit and cursor query parameters.
func pageParams(r *http.Request) (string, int, error) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", 0, errors.New("invalid limit")
		}
		limit = n
	}
	return r.URL.Query().Get("cursor"), limit, nil
}
