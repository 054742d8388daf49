package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JxWayne890/dealflow/internal/app"
	"github.com/JxWayne890/dealflow/internal/domain"
)

// Timestamp accepts RFC 3339 and bare dates ("2024-01-01") on input and
// always writes RFC 3339 in UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}

	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}

	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// QuoteRequest is the body of create and update calls. Amounts may be sent
// as JSON numbers or strings.
type QuoteRequest struct {
	InvestorName    string          `json:"investorName"    validate:"required,notempty,max=200"`
	InvestorEmail   string          `json:"investorEmail"   validate:"omitempty,email"`
	PropertyAddress string          `json:"propertyAddress" validate:"required,notempty,max=500"`
	LoanAmount      decimal.Decimal `json:"loanAmount"      validate:"gt=0"`
	Rate            decimal.Decimal `json:"rate"            validate:"gte=0,lte=100"`
	DealType        string          `json:"dealType"        validate:"required,max=64"`
	Status          string          `json:"status"          validate:"omitempty,max=32"`
}

// ToDomain converts the request. Ownership and ID are set by the caller.
func (r *QuoteRequest) ToDomain() domain.Quote {
	return domain.Quote{
		InvestorName:    r.InvestorName,
		InvestorEmail:   r.InvestorEmail,
		PropertyAddress: r.PropertyAddress,
		LoanAmount:      r.LoanAmount,
		Rate:            r.Rate,
		DealType:        domain.DealType(r.DealType),
		Status:          domain.QuoteStatus(r.Status),
	}
}

// QuoteResponse is a quote as the SPA renders it.
type QuoteResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	InvestorName    string    `json:"investorName"`
	InvestorEmail   string    `json:"investorEmail"`
	PropertyAddress string    `json:"propertyAddress"`
	LoanAmount      float64   `json:"loanAmount"`
	Rate            float64   `json:"rate"`
	DealType        string    `json:"dealType"`
	Status          string    `json:"status"`
	CreatedAt       Timestamp `json:"createdAt"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:              q.ID,
		UserID:          q.OwnerID,
		InvestorName:    q.InvestorName,
		InvestorEmail:   q.InvestorEmail,
		PropertyAddress: q.PropertyAddress,
		LoanAmount:      q.LoanAmount.InexactFloat64(),
		Rate:            q.Rate.InexactFloat64(),
		DealType:        string(q.DealType),
		Status:          string(q.Status),
		CreatedAt:       Timestamp{q.CreatedAt},
	}
}

// NewQuoteResponses converts a slice, never returning nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, NewQuoteResponse(&quotes[i]))
	}

	return out
}

// PageQuotes cuts one page out of a newest-first quote list. The cursor
// names the last quote of the previous page; a cursor pointing at a quote
// that has since been deleted resumes at the first older quote.
func PageQuotes(quotes []domain.Quote, req *PaginationRequest) (*Page[QuoteResponse], error) {
	cursor, err := ParseCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	start := 0
	if cursor != nil {
		start = resumeIndex(quotes, cursor)
	}

	end := min(start+req.PageSize(), len(quotes))

	page := &Page[QuoteResponse]{
		Items:   NewQuoteResponses(quotes[start:end]),
		HasMore: end < len(quotes),
	}
	if page.HasMore {
		last := quotes[end-1]
		page.NextCursor = Cursor{CreatedAt: last.CreatedAt.UTC(), ID: last.ID}.Encode()
	}

	return page, nil
}

func resumeIndex(quotes []domain.Quote, cursor *Cursor) int {
	for i, q := range quotes {
		if q.ID == cursor.ID && q.CreatedAt.Equal(cursor.CreatedAt) {
			return i + 1
		}
	}

	for i, q := range quotes {
		if q.CreatedAt.Before(cursor.CreatedAt) {
			return i
		}
	}

	return len(quotes)
}

// QuotePayload is one quote of a client-held snapshot.
type QuotePayload struct {
	ID              string          `json:"id"`
	InvestorName    string          `json:"investorName"`
	InvestorEmail   string          `json:"investorEmail"`
	PropertyAddress string          `json:"propertyAddress"`
	LoanAmount      decimal.Decimal `json:"loanAmount"`
	Rate            decimal.Decimal `json:"rate"`
	DealType        string          `json:"dealType"`
	Status          string          `json:"status"`
	CreatedAt       Timestamp       `json:"createdAt"`
}

// DedupeRequest is the optional body of the deduplicate call. A missing or
// null quotes field means "resolve what the store holds"; an empty array is
// a snapshot with nothing in it.
type DedupeRequest struct {
	Quotes []QuotePayload `json:"quotes"`
}

// Snapshot converts the payload for ownerID. It returns nil when no
// snapshot was supplied.
func (r *DedupeRequest) Snapshot(ownerID string) []domain.Quote {
	if r == nil || r.Quotes == nil {
		return nil
	}

	out := make([]domain.Quote, 0, len(r.Quotes))
	for _, p := range r.Quotes {
		out = append(out, domain.Quote{
			ID:              p.ID,
			OwnerID:         ownerID,
			InvestorName:    p.InvestorName,
			InvestorEmail:   p.InvestorEmail,
			PropertyAddress: p.PropertyAddress,
			LoanAmount:      p.LoanAmount,
			Rate:            p.Rate,
			DealType:        domain.DealType(p.DealType),
			Status:          domain.QuoteStatus(p.Status),
			CreatedAt:       p.CreatedAt.Time,
		})
	}

	return out
}

// DedupeFailure names a duplicate that could not be deleted.
type DedupeFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// DedupeResponse is the new snapshot after a pass.
type DedupeResponse struct {
	Quotes          []QuoteResponse `json:"quotes"`
	DuplicatesFound int             `json:"duplicatesFound"`
	DeletedCount    int             `json:"deletedCount"`
	Failed          []DedupeFailure `json:"failed"`
}

// NewDedupeResponse converts a resolver result.
func NewDedupeResponse(result *app.DedupeResult) DedupeResponse {
	failed := make([]DedupeFailure, 0, len(result.Failed))
	for _, f := range result.Failed {
		failed = append(failed, DedupeFailure{ID: f.ID, Reason: f.Reason})
	}

	return DedupeResponse{
		Quotes:          NewQuoteResponses(result.Quotes),
		DuplicatesFound: result.Found,
		DeletedCount:    result.Deleted,
		Failed:          failed,
	}
}
