package acl

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	supabaseServiceName  = "supabase"
	defaultQuotesTable   = "quotes"
	preferRepresentation = "return=representation"
)

// SupabaseQuoteStoreConfig configures a SupabaseQuoteStore.
type SupabaseQuoteStoreConfig struct {
	// Client must have BaseURL set to the project URL and an AuthFunc
	// from SupabaseAuth.
	Client *clients.Client

	// Table defaults to "quotes".
	Table string

	Logger *slog.Logger
}

// SupabaseQuoteStore implements ports.QuoteStore over the PostgREST API.
type SupabaseQuoteStore struct {
	BaseAdapter
	path   string
	logger *slog.Logger
}

// NewSupabaseQuoteStore creates the store. Panics if Client is nil.
func NewSupabaseQuoteStore(cfg SupabaseQuoteStoreConfig) *SupabaseQuoteStore {
	if cfg.Client == nil {
		panic("SupabaseQuoteStore: Client is required")
	}

	table := cfg.Table
	if table == "" {
		table = defaultQuotesTable
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SupabaseQuoteStore{
		BaseAdapter: NewBaseAdapter(cfg.Client, supabaseServiceName),
		path:        "/rest/v1/" + table,
		logger:      logger.With(slog.String("component", "acl.SupabaseQuoteStore")),
	}
}

// SupabaseAuth returns an AuthFunc sending the service-role key both as
// the apikey header and as a bearer token.
func SupabaseAuth(apiKey string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("apikey", apiKey)
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

// quoteRow is a row of the quotes table as PostgREST renders it.
type quoteRow struct {
	ID              string          `json:"id,omitempty"`
	UserID          string          `json:"user_id"`
	InvestorName    string          `json:"investor_name"`
	InvestorEmail   string          `json:"investor_email"`
	PropertyAddress string          `json:"property_address"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	Rate            decimal.Decimal `json:"rate"`
	DealType        string          `json:"deal_type"`
	Status          string          `json:"status"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
}

// quotePatch omits the identity columns so an update never moves a quote
// between owners or rewrites its creation time.
type quotePatch struct {
	InvestorName    string          `json:"investor_name"`
	InvestorEmail   string          `json:"investor_email"`
	PropertyAddress string          `json:"property_address"`
	LoanAmount      decimal.Decimal `json:"loan_amount"`
	Rate            decimal.Decimal `json:"rate"`
	DealType        string          `json:"deal_type"`
	Status          string          `json:"status"`
}

func toRow(q *domain.Quote) quoteRow {
	row := quoteRow{
		ID:              q.ID,
		UserID:          q.OwnerID,
		InvestorName:    q.InvestorName,
		InvestorEmail:   q.InvestorEmail,
		PropertyAddress: q.PropertyAddress,
		LoanAmount:      q.LoanAmount,
		Rate:            q.Rate,
		DealType:        string(q.DealType),
		Status:          string(q.Status),
	}
	if !q.CreatedAt.IsZero() {
		created := q.CreatedAt.UTC()
		row.CreatedAt = &created
	}

	return row
}

func toPatch(q *domain.Quote) quotePatch {
	return quotePatch{
		InvestorName:    q.InvestorName,
		InvestorEmail:   q.InvestorEmail,
		PropertyAddress: q.PropertyAddress,
		LoanAmount:      q.LoanAmount,
		Rate:            q.Rate,
		DealType:        string(q.DealType),
		Status:          string(q.Status),
	}
}

func translateRow(row *quoteRow) (domain.Quote, error) {
	if err := ValidateRequired(row.ID, "id"); err != nil {
		return domain.Quote{}, err
	}

	q := domain.Quote{
		ID:              row.ID,
		OwnerID:         row.UserID,
		InvestorName:    row.InvestorName,
		InvestorEmail:   row.InvestorEmail,
		PropertyAddress: row.PropertyAddress,
		LoanAmount:      row.LoanAmount,
		Rate:            row.Rate,
		DealType:        domain.DealType(row.DealType),
		Status:          domain.QuoteStatus(row.Status),
	}
	if row.CreatedAt != nil {
		q.CreatedAt = row.CreatedAt.UTC()
	}

	return q, nil
}

func eq(v string) string { return "eq." + v }

// ListQuotes implements ports.QuoteStore.
func (s *SupabaseQuoteStore) ListQuotes(ctx context.Context, ownerID string) ([]domain.Quote, error) {
	query := url.Values{
		"select":  {"*"},
		"user_id": {eq(ownerID)},
		"order":   {"created_at.desc"},
	}

	body, err := s.Call(ctx, http.MethodGet, s.path, nil, "list quotes", ownerID, clients.WithQuery(query))
	if err != nil {
		return nil, err
	}

	rows, err := DecodeResponseForService[[]quoteRow](body, s.ServiceName())
	if err != nil {
		return nil, err
	}

	quotes, err := TranslateSlice(*rows, translateRow)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	s.logger.Log(ctx, logging.LevelTrace, "quotes listed", slog.Int("count", len(quotes)))

	return quotes, nil
}

// GetQuote implements ports.QuoteStore.
func (s *SupabaseQuoteStore) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	query := url.Values{"select": {"*"}, "id": {eq(id)}}

	body, err := s.Call(ctx, http.MethodGet, s.path, nil, "get quote", id, clients.WithQuery(query))
	if err != nil {
		return nil, err
	}

	return s.single(body, id)
}

// CreateQuote implements ports.QuoteStore.
func (s *SupabaseQuoteStore) CreateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error) {
	row := toRow(&q)
	row.ID = ""

	body, err := s.Call(ctx, http.MethodPost, s.path, row, "create quote", "",
		clients.WithHeader("Prefer", preferRepresentation))
	if err != nil {
		return nil, err
	}

	return s.single(body, "")
}

// UpdateQuote implements ports.QuoteStore.
func (s *SupabaseQuoteStore) UpdateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error) {
	body, err := s.Call(ctx, http.MethodPatch, s.path, toPatch(&q), "update quote", q.ID,
		clients.WithQuery(url.Values{"id": {eq(q.ID)}}),
		clients.WithHeader("Prefer", preferRepresentation))
	if err != nil {
		return nil, err
	}

	return s.single(body, q.ID)
}

// DeleteQuote implements ports.QuoteStore. PostgREST answers 200 with the
// deleted rows, so an empty array means the quote did not exist.
func (s *SupabaseQuoteStore) DeleteQuote(ctx context.Context, id string) (bool, error) {
	body, err := s.Call(ctx, http.MethodDelete, s.path, nil, "delete quote", id,
		clients.WithQuery(url.Values{"id": {eq(id)}}),
		clients.WithHeader("Prefer", preferRepresentation))
	if err != nil {
		return false, err
	}

	rows, err := DecodeResponseForService[[]quoteRow](body, s.ServiceName())
	if err != nil {
		return false, err
	}

	return len(*rows) > 0, nil
}

// Name implements ports.HealthChecker.
func (s *SupabaseQuoteStore) Name() string { return supabaseServiceName }

// Check implements ports.HealthChecker with a one-row probe.
func (s *SupabaseQuoteStore) Check(ctx context.Context) error {
	body, err := s.Call(ctx, http.MethodGet, s.path, nil, "health check", "",
		clients.WithQuery(url.Values{"select": {"id"}, "limit": {"1"}}))
	if err != nil {
		return err
	}

	return body.Close()
}

// single decodes a PostgREST array that should hold exactly one row.
func (s *SupabaseQuoteStore) single(body io.ReadCloser, id string) (*domain.Quote, error) {
	rows, err := DecodeResponseForService[[]quoteRow](body, s.ServiceName())
	if err != nil {
		return nil, err
	}

	if len(*rows) == 0 {
		return nil, domain.NewNotFoundError("quote", id)
	}

	q, err := translateRow(&(*rows)[0])
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	return &q, nil
}
