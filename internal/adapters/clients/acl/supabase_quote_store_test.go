package acl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/domain"
)

const rowJSON = `{
	"id": "q-1",
	"user_id": "owner-1",
	"investor_name": "Dana Reyes",
	"investor_email": "dana@example.com",
	"property_address": "12 Elm St",
	"loan_amount": 250000,
	"rate": "7.50",
	"deal_type": "DSCR",
	"status": "sent",
	"created_at": "2025-02-01T10:00:00+00:00"
}`

func setupStore(t *testing.T, h http.HandlerFunc) *SupabaseQuoteStore {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := testConfig("supabase", srv.URL)
	cfg.AuthFunc = SupabaseAuth("service-role")

	client, err := clients.New(cfg)
	require.NoError(t, err)

	return NewSupabaseQuoteStore(SupabaseQuoteStoreConfig{Client: client})
}

func TestNewSupabaseQuoteStore_PanicsWithoutClient(t *testing.T) {
	assert.PanicsWithValue(t, "SupabaseQuoteStore: Client is required", func() {
		NewSupabaseQuoteStore(SupabaseQuoteStoreConfig{})
	})
}

func TestSupabaseQuoteStore_ListQuotes(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/quotes", r.URL.Path)
		assert.Equal(t, "eq.owner-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "service-role", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-role", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, "["+rowJSON+"]")
	})

	quotes, err := store.ListQuotes(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "q-1", q.ID)
	assert.Equal(t, "owner-1", q.OwnerID)
	assert.Equal(t, domain.DealTypeDSCR, q.DealType)
	assert.Equal(t, domain.QuoteStatusSent, q.Status)
	assert.True(t, q.LoanAmount.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, "7.5", q.Rate.String())
	assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), q.CreatedAt)
}

func TestSupabaseQuoteStore_ListQuotes_StatusReadExactly(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":"q-2","user_id":"owner-1","investor_name":"Dana Reyes","investor_email":"dana@example.com",
			 "property_address":"12 Elm St","loan_amount":250000,"rate":7.5,"deal_type":"DSCR",
			 "status":"Sent","created_at":"2025-02-02T10:00:00+00:00"},
			{"id":"q-1","user_id":"owner-1","investor_name":"Dana Reyes","investor_email":"dana@example.com",
			 "property_address":"12 Elm St","loan_amount":250000,"rate":7.5,"deal_type":"DSCR",
			 "status":"sent","created_at":"2025-02-01T10:00:00+00:00"}
		]`)
	})

	quotes, err := store.ListQuotes(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, domain.QuoteStatus("Sent"), quotes[0].Status)
	assert.Equal(t, domain.QuoteStatusSent, quotes[1].Status)
	assert.NotEqual(t, quotes[0].Key(), quotes[1].Key())
	assert.False(t, domain.PlanDedupe(quotes).HasDuplicates(), "statuses differing in case are distinct quotes")
}

func TestSupabaseQuoteStore_ListQuotes_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"db down"}`},
		{"malformed body", http.StatusOK, `{"not":"an array"}`},
		{"row without id", http.StatusOK, `[{"user_id":"owner-1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := store.ListQuotes(context.Background(), "owner-1")
			assert.True(t, domain.IsUnavailable(err), "got %v", err)
		})
	}
}

func TestSupabaseQuoteStore_GetQuote(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq.q-1" {
			_, _ = io.WriteString(w, "["+rowJSON+"]")
			return
		}
		_, _ = io.WriteString(w, "[]")
	})

	q, err := store.GetQuote(context.Background(), "q-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", q.InvestorName)

	_, err = store.GetQuote(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestSupabaseQuoteStore_CreateQuote(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var row map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&row))
		assert.NotContains(t, row, "id")
		assert.Equal(t, "owner-1", row["user_id"])
		assert.Equal(t, "250000", row["loan_amount"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "["+rowJSON+"]")
	})

	created, err := store.CreateQuote(context.Background(), domain.Quote{
		ID:              "client-side-id",
		OwnerID:         "owner-1",
		InvestorName:    "Dana Reyes",
		PropertyAddress: "12 Elm St",
		LoanAmount:      decimal.NewFromInt(250000),
		Rate:            decimal.RequireFromString("7.5"),
		DealType:        domain.DealTypeDSCR,
		Status:          domain.QuoteStatusSent,
	})
	require.NoError(t, err)
	assert.Equal(t, "q-1", created.ID)
}

func TestSupabaseQuoteStore_CreateQuote_UniqueViolation(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
	})

	_, err := store.CreateQuote(context.Background(), domain.Quote{OwnerID: "owner-1"})
	assert.True(t, domain.IsConflict(err))
}

func TestSupabaseQuoteStore_UpdateQuote(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.q-1", r.URL.Query().Get("id"))

		var patch map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.NotContains(t, patch, "user_id")
		assert.NotContains(t, patch, "created_at")
		assert.Equal(t, "sent", patch["status"])

		_, _ = io.WriteString(w, "["+rowJSON+"]")
	})

	updated, err := store.UpdateQuote(context.Background(), domain.Quote{ID: "q-1", Status: domain.QuoteStatusSent})
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusSent, updated.Status)
}

func TestSupabaseQuoteStore_DeleteQuote(t *testing.T) {
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		switch r.URL.Query().Get("id") {
		case "eq.q-1":
			_, _ = io.WriteString(w, "["+rowJSON+"]")
		case "eq.boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, "[]")
		}
	})

	existed, err := store.DeleteQuote(context.Background(), "q-1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.DeleteQuote(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.DeleteQuote(context.Background(), "boom")
	assert.True(t, domain.IsUnavailable(err))
}

func TestSupabaseQuoteStore_HealthCheck(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	store := setupStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "[]")
	})

	assert.Equal(t, "supabase", store.Name())
	require.NoError(t, store.Check(context.Background()))

	healthy.Store(false)
	assert.Error(t, store.Check(context.Background()))
}
