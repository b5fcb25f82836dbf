// Package pagination pages through lists ordered by (timestamp, id).
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

var ErrInvalidCursor = errors.New("invalid cursor format")

// Cursor marks the last item of the previous page.
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// PageResult is one page of items.
type PageResult[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// KeyFunc returns the ordering key of an item.
type KeyFunc[T any] func(T) (id string, at time.Time)

// EncodeCursor creates an opaque cursor for the item with the given key.
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := timestamp.UTC().Format(time.RFC3339Nano) + "|" + lastID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor. An empty cursor decodes to nil.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: parts[1], Timestamp: timestamp}, nil
}

// after reports whether (id, at) sorts after the cursor.
func (c *Cursor) after(id string, at time.Time) bool {
	if !at.Equal(c.Timestamp) {
		return at.After(c.Timestamp)
	}
	return id > c.LastID
}

// ClampLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Page returns the items after cursor, up to limit. items must already be
// sorted by (timestamp, id) ascending.
func Page[T any](items []T, cursor string, limit int, key KeyFunc[T]) (PageResult[T], error) {
	c, err := DecodeCursor(cursor)
	if err != nil {
		return PageResult[T]{}, err
	}
	limit = ClampLimit(limit)

	start := 0
	if c != nil {
		start = len(items)
		for i, item := range items {
			id, at := key(item)
			if c.after(id, at) {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	page := PageResult[T]{Items: make([]T, 0, end-start)}
	page.Items = append(page.Items, items[start:end]...)
	if end < len(items) && end > start {
		page.HasMore = true
		page.Cursor = EncodeCursor(key(items[end-1]))
	}
	return page, nil
}
