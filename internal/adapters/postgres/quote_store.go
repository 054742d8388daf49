package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/JxWayne890/dealflow/internal/domain"
)

const serviceName = "postgres"

// Postgres error codes the store translates.
const (
	codeUniqueViolation   = "23505"
	codeCheckViolation    = "23514"
	codeNotNullViolation  = "23502"
	codeInvalidText       = "22P02"
	codeNumericOutOfRange = "22003"
)

// QuoteStore implements ports.QuoteStore on a pgx pool.
type QuoteStore struct {
	db    *DB
	table string
}

// NewQuoteStore creates the store over table. An empty table means "quotes".
func NewQuoteStore(db *DB, table string) *QuoteStore {
	if table == "" {
		table = "quotes"
	}

	return &QuoteStore{db: db, table: pgx.Identifier{table}.Sanitize()}
}

// Numeric columns are read as text so shopspring parses them without
// going through float64.
const quoteColumns = `id, user_id, investor_name, investor_email, property_address,
	loan_amount::text, rate::text, deal_type, status, created_at`

func scanQuote(row pgx.Row) (domain.Quote, error) {
	var (
		q                domain.Quote
		amount, rate     string
		dealType, status string
		createdAt        time.Time
	)

	err := row.Scan(&q.ID, &q.OwnerID, &q.InvestorName, &q.InvestorEmail, &q.PropertyAddress,
		&amount, &rate, &dealType, &status, &createdAt)
	if err != nil {
		return domain.Quote{}, err
	}

	if q.LoanAmount, err = decimal.NewFromString(amount); err != nil {
		return domain.Quote{}, fmt.Errorf("loan_amount: %w", err)
	}
	if q.Rate, err = decimal.NewFromString(rate); err != nil {
		return domain.Quote{}, fmt.Errorf("rate: %w", err)
	}

	q.DealType = domain.DealType(dealType)
	q.Status = domain.QuoteStatus(status)
	q.CreatedAt = createdAt.UTC()

	return q, nil
}

// ListQuotes implements ports.QuoteStore.
func (s *QuoteStore) ListQuotes(ctx context.Context, ownerID string) ([]domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM ` + s.table + ` WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, mapError(err, "list quotes", ownerID)
	}

	quotes, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Quote, error) {
		return scanQuote(r)
	})
	if err != nil {
		return nil, mapError(err, "list quotes", ownerID)
	}

	return quotes, nil
}

// GetQuote implements ports.QuoteStore.
func (s *QuoteStore) GetQuote(ctx context.Context, id string) (*domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM ` + s.table + ` WHERE id = $1`

	q, err := scanQuote(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "get quote", id)
	}

	return &q, nil
}

// CreateQuote implements ports.QuoteStore. The database assigns the ID;
// CreatedAt is kept when set.
func (s *QuoteStore) CreateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error) {
	var createdAt *time.Time
	if !q.CreatedAt.IsZero() {
		t := q.CreatedAt.UTC()
		createdAt = &t
	}

	query := `INSERT INTO ` + s.table + `
		(user_id, investor_name, investor_email, property_address, loan_amount, rate, deal_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, COALESCE($9, now()))
		RETURNING ` + quoteColumns

	created, err := scanQuote(s.db.Pool.QueryRow(ctx, query,
		q.OwnerID, q.InvestorName, q.InvestorEmail, q.PropertyAddress,
		q.LoanAmount.String(), q.Rate.String(), string(q.DealType), string(q.Status), createdAt))
	if err != nil {
		return nil, mapError(err, "create quote", "")
	}

	return &created, nil
}

// UpdateQuote implements ports.QuoteStore. Owner and creation time are
// never rewritten.
func (s *QuoteStore) UpdateQuote(ctx context.Context, q domain.Quote) (*domain.Quote, error) {
	query := `UPDATE ` + s.table + ` SET
		investor_name = $2, investor_email = $3, property_address = $4,
		loan_amount = $5::numeric, rate = $6::numeric, deal_type = $7, status = $8
		WHERE id = $1
		RETURNING ` + quoteColumns

	updated, err := scanQuote(s.db.Pool.QueryRow(ctx, query,
		q.ID, q.InvestorName, q.InvestorEmail, q.PropertyAddress,
		q.LoanAmount.String(), q.Rate.String(), string(q.DealType), string(q.Status)))
	if err != nil {
		return nil, mapError(err, "update quote", q.ID)
	}

	return &updated, nil
}

// DeleteQuote implements ports.QuoteStore.
func (s *QuoteStore) DeleteQuote(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, id)
	if err != nil {
		return false, mapError(err, "delete quote", id)
	}

	return tag.RowsAffected() > 0, nil
}

// Name implements ports.HealthChecker.
func (s *QuoteStore) Name() string { return serviceName }

// Check implements ports.HealthChecker.
func (s *QuoteStore) Check(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return domain.NewUnavailableError(serviceName, err.Error())
	}

	return nil
}

// mapError translates pgx failures into domain errors.
func mapError(err error, operation, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewNotFoundError("quote", id)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", operation, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return domain.NewConflictErrorWithDetails("quote", pgErr.Message, pgErr.Detail)
		case codeCheckViolation, codeNotNullViolation, codeInvalidText, codeNumericOutOfRange:
			return domain.NewValidationError(pgErr.ColumnName, pgErr.Message)
		}
	}

	return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s: %v", operation, err))
}
