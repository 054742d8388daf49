package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// Page sizes for list endpoints.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidCursor is returned for a cursor this service did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest holds the paging query parameters.
type PaginationRequest struct {
	// Cursor is the NextCursor of the previous page; empty for the first page.
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// PageSize returns the requested limit clamped to [1, MaxLimit].
func (p *PaginationRequest) PageSize() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// Page is one slice of a newest-first list.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Cursor marks the last item of a page. The ID breaks ties between items
// created at the same instant.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes a token produced by Encode. An empty token returns
// nil and no error.
func ParseCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}

	return &c, nil
}
