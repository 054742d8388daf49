//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxWayne890/dealflow/internal/domain"
)

func newQuote(owner string, created time.Time) domain.Quote {
	return domain.Quote{
		OwnerID:         owner,
		InvestorName:    "Acme",
		InvestorEmail:   "deals@acme.test",
		PropertyAddress: "1 Main St",
		LoanAmount:      decimal.RequireFromString("500000.00"),
		Rate:            decimal.RequireFromString("7.50"),
		DealType:        domain.DealTypeDSCR,
		Status:          domain.QuoteStatusSent,
		CreatedAt:       created,
	}
}

// TestSupabaseStore_RoundTrip drives the store built by bootstrap through
// every operation against the PostgREST fake.
func TestSupabaseStore_RoundTrip(t *testing.T) {
	s := startStack(t)
	store := s.deps.Store
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := store.CreateQuote(ctx, newQuote(brokerA, base))
	require.NoError(t, err)
	newer, err := store.CreateQuote(ctx, newQuote(brokerA, base.AddDate(0, 1, 0)))
	require.NoError(t, err)
	_, err = store.CreateQuote(ctx, newQuote(brokerB, base))
	require.NoError(t, err)

	require.NotEmpty(t, older.ID)
	assert.Equal(t, older.Key(), newer.Key(), "amounts read back with the same identity")

	got, err := store.GetQuote(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, brokerA, got.OwnerID)
	assert.True(t, base.Equal(got.CreatedAt))

	listed, err := store.ListQuotes(ctx, brokerA)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, newer.ID, listed[0].ID, "newest first")

	got.Status = domain.QuoteStatusAccepted
	got.OwnerID = brokerB
	updated, err := store.UpdateQuote(ctx, *got)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusAccepted, updated.Status)
	assert.Equal(t, brokerA, updated.OwnerID, "updates never move a quote between owners")

	existed, err := store.DeleteQuote(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteQuote(ctx, older.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.GetQuote(ctx, older.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestSupabaseStore_Unavailable(t *testing.T) {
	s := startStack(t)
	s.upstream.setDown(true)
	ctx := context.Background()

	_, err := s.deps.Store.ListQuotes(ctx, brokerA)
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "got %v", err)

	require.Error(t, s.deps.Store.Check(ctx))

	result := s.deps.Health.CheckAll(ctx)
	assert.Equal(t, "unhealthy", string(result.Status))
}

func TestQuoteService_DeduplicateAgainstSupabase(t *testing.T) {
	s := startStack(t)
	seedDuplicates(s, brokerA, 3)

	result, err := s.deps.Quotes.Deduplicate(context.Background(), brokerA, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Found)
	assert.Equal(t, 2, result.Deleted)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Quotes, 1)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), result.Quotes[0].CreatedAt, "the newest copy survives")
	assert.Len(t, result.DeletedIDs, 2)
	assert.NotContains(t, result.DeletedIDs, result.Quotes[0].ID)

	remaining := s.upstream.ownerRows(brokerA)
	require.Len(t, remaining, 1)
	assert.Equal(t, result.Quotes[0].ID, remaining[0].ID)

	metrics, err := s.do(context.Background(), http.MethodGet, "/-/metrics", "", nil)
	require.NoError(t, err)
	assert.Contains(t, string(metrics.body), `dealflow_dedupe_passes_total{outcome="clean"} 1`)
	assert.Contains(t, string(metrics.body), "dealflow_dedupe_deletions_succeeded_total 2")
}

func TestResendMailer_ThroughBootstrap(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	receipt, err := s.deps.Mailer.Send(ctx, domain.Email{
		From:    "The OfferHero <quotes@theofferhero.com>",
		To:      []string{"investor@acme.test"},
		Subject: "Your quote",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "em_1", receipt.ID)
	assert.Equal(t, "resend", receipt.Provider)

	_, err = s.deps.Mailer.Send(ctx, domain.Email{
		From:    "The OfferHero <quotes@theofferhero.com>",
		To:      []string{"bounce@acme.test"},
		Subject: "Your quote",
		HTML:    "<p>hi</p>",
	})
	upstream, ok := domain.AsUpstream(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.StatusCode)
}

func TestStripeGateway_ThroughBootstrap(t *testing.T) {
	s := startStack(t)
	ctx := context.Background()

	session, err := s.deps.Gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		PriceID:    "price_pro_monthly",
		UserID:     brokerA,
		Email:      "broker@offerhero.test",
		SuccessURL: "https://app.offerhero.test/ok",
		CancelURL:  "https://app.offerhero.test/cancel",
		Mode:       domain.CheckoutModeSubscription,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Contains(t, session.URL, "cs_test_1")

	params := s.upstream.checkoutParams()
	require.Len(t, params, 1)
	assert.Equal(t, brokerA, params[0]["client_reference_id"])
	assert.Equal(t, brokerA, params[0]["metadata[user_id]"])
	assert.Equal(t, brokerA, params[0]["subscription_data[metadata][user_id]"])
	assert.Equal(t, "broker@offerhero.test", params[0]["customer_email"])

	_, err = s.deps.Gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		PriceID: "price_missing",
		UserID:  brokerA,
		Mode:    domain.CheckoutModePayment,
	})
	upstream, ok := domain.AsUpstream(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "resource_missing", upstream.Code)
}
