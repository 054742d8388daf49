package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/config"
)

func withPostgres(t *testing.T) *QuoteStore {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized Postgres tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("dealflow"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, MigrateUp(ctx, dsn))

	db, err := Connect(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewQuoteStore(db, "quotes")
}

func newQuote(owner string, created time.Time) domain.Quote {
	return domain.Quote{
		OwnerID:         owner,
		InvestorName:    "Acme",
		InvestorEmail:   "a@x.com",
		PropertyAddress: "1 Main St",
		LoanAmount:      decimal.NewFromInt(500000),
		Rate:            decimal.RequireFromString("7.50"),
		DealType:        domain.DealTypeDSCR,
		Status:          domain.QuoteStatusSent,
		CreatedAt:       created,
	}
}

func TestQuoteStore_RoundTrip(t *testing.T) {
	store := withPostgres(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := store.CreateQuote(ctx, newQuote("owner-1", base))
	require.NoError(t, err)
	newer, err := store.CreateQuote(ctx, newQuote("owner-1", base.AddDate(0, 1, 0)))
	require.NoError(t, err)
	_, err = store.CreateQuote(ctx, newQuote("owner-2", base))
	require.NoError(t, err)

	assert.NotEmpty(t, older.ID)
	assert.Equal(t, older.Key(), newer.Key(), "7.50 reads back with the same key")

	list, err := store.ListQuotes(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID, "newest first")

	older.Status = domain.QuoteStatusAccepted
	updated, err := store.UpdateQuote(ctx, *older)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusAccepted, updated.Status)
	assert.True(t, updated.CreatedAt.Equal(base))

	existed, err := store.DeleteQuote(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteQuote(ctx, older.ID)
	require.NoError(t, err)
	assert.False(t, existed, "second delete finds nothing")

	_, err = store.GetQuote(ctx, older.ID)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, store.Check(ctx))
}

func TestQuoteStore_StatusReadExactly(t *testing.T) {
	store := withPostgres(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	lower := newQuote("owner-1", base)
	upper := newQuote("owner-1", base.AddDate(0, 0, 1))
	upper.Status = "Sent"

	_, err := store.CreateQuote(ctx, lower)
	require.NoError(t, err)
	_, err = store.CreateQuote(ctx, upper)
	require.NoError(t, err)

	list, err := store.ListQuotes(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, domain.QuoteStatus("Sent"), list[0].Status)
	assert.Equal(t, domain.QuoteStatusSent, list[1].Status)
	assert.False(t, domain.PlanDedupe(list).HasDuplicates())
}

func TestQuoteStore_CheckConstraint(t *testing.T) {
	store := withPostgres(t)

	q := newQuote("owner-1", time.Time{})
	q.LoanAmount = decimal.Zero

	_, err := store.CreateQuote(context.Background(), q)
	assert.True(t, domain.IsValidation(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "no rows", err: pgx.ErrNoRows, check: domain.IsNotFound},
		{name: "unique", err: &pgconn.PgError{Code: codeUniqueViolation}, check: domain.IsConflict},
		{name: "check", err: &pgconn.PgError{Code: codeCheckViolation, ColumnName: "loan_amount"}, check: domain.IsValidation},
		{name: "bad text", err: &pgconn.PgError{Code: codeInvalidText}, check: domain.IsValidation},
		{name: "other pg error", err: &pgconn.PgError{Code: "57P01"}, check: domain.IsUnavailable},
		{name: "network", err: errors.New("dial tcp: connection refused"), check: domain.IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(mapError(tt.err, "op", "id-1")))
		})
	}
}

func TestMapError_KeepsContextErrors(t *testing.T) {
	err := mapError(context.DeadlineExceeded, "delete quote", "1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, domain.IsUnavailable(err))
}

func TestNewQuoteStore_QuotesTable(t *testing.T) {
	assert.Equal(t, `"quotes"`, NewQuoteStore(nil, "").table)
	assert.Equal(t, `"offer ""quotes"""`, NewQuoteStore(nil, `offer "quotes"`).table)
}
