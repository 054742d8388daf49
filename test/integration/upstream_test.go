//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// row is a quotes row as PostgREST renders it.
type row struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	InvestorName    string          `json:"investor_name"`
	InvestorEmail   string          `json:"investor_email"`
	PropertyAddress string          `json:"property_address"`
	LoanAmount      json.RawMessage `json:"loan_amount"`
	Rate            json.RawMessage `json:"rate"`
	DealType        string          `json:"deal_type"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// sentEmail is what the fake Resend API received.
type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// upstream fakes the three providers behind the service on one server:
// Supabase PostgREST under /rest/v1, Resend under /emails and Stripe under
// /v1/checkout/sessions.
type upstream struct {
	server *httptest.Server

	mu         sync.Mutex
	rows       []row
	emails     []sentEmail
	checkouts  []map[string]string
	deletes    int
	deleteWait time.Duration
	down       bool
}

func newUpstream() *upstream {
	u := &upstream{}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/quotes", u.quotes)
	mux.HandleFunc("POST /emails", u.email)
	mux.HandleFunc("POST /v1/checkout/sessions", u.checkout)
	u.server = httptest.NewServer(mux)

	return u
}

func (u *upstream) URL() string { return u.server.URL }

func (u *upstream) Close() { u.server.Close() }

func (u *upstream) seed(r row) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	u.rows = append(u.rows, r)
}

func (u *upstream) slowDeletes(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.deleteWait = d
}

func (u *upstream) setDown(down bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.down = down
}

func (u *upstream) ownerRows(owner string) []row {
	u.mu.Lock()
	defer u.mu.Unlock()

	var out []row
	for _, r := range u.rows {
		if r.UserID == owner {
			out = append(out, r)
		}
	}

	return out
}

func (u *upstream) deleteCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.deletes
}

func (u *upstream) sentEmails() []sentEmail {
	u.mu.Lock()
	defer u.mu.Unlock()

	return slices.Clone(u.emails)
}

func (u *upstream) checkoutParams() []map[string]string {
	u.mu.Lock()
	defer u.mu.Unlock()

	return slices.Clone(u.checkouts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// eqFilter reads a PostgREST "column=eq.value" filter.
func eqFilter(r *http.Request, column string) (string, bool) {
	v := r.URL.Query().Get(column)
	if !strings.HasPrefix(v, "eq.") {
		return "", false
	}

	return strings.TrimPrefix(v, "eq."), true
}

func (u *upstream) quotes(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	down := u.down
	wait := u.deleteWait
	u.mu.Unlock()

	if down {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "database is starting up"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		u.list(w, r)
	case http.MethodPost:
		u.insert(w, r)
	case http.MethodPatch:
		u.patch(w, r)
	case http.MethodDelete:
		if wait > 0 {
			time.Sleep(wait)
		}
		u.remove(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (u *upstream) list(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := []row{}
	for _, q := range u.rows {
		if owner, ok := eqFilter(r, "user_id"); ok && q.UserID != owner {
			continue
		}
		if id, ok := eqFilter(r, "id"); ok && q.ID != id {
			continue
		}
		out = append(out, q)
	}

	if r.URL.Query().Get("order") == "created_at.desc" {
		slices.SortStableFunc(out, func(a, b row) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	if r.URL.Query().Get("limit") == "1" && len(out) > 1 {
		out = out[:1]
	}

	writeJSON(w, http.StatusOK, out)
}

func (u *upstream) insert(w http.ResponseWriter, r *http.Request) {
	var in row
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "PGRST102", "message": err.Error()})
		return
	}

	in.ID = uuid.NewString()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	u.mu.Lock()
	u.rows = append(u.rows, in)
	u.mu.Unlock()

	writeJSON(w, http.StatusCreated, []row{in})
}

func (u *upstream) patch(w http.ResponseWriter, r *http.Request) {
	id, _ := eqFilter(r, "id")

	var in row
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"code": "PGRST102", "message": err.Error()})
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for i := range u.rows {
		if u.rows[i].ID != id {
			continue
		}

		in.ID, in.UserID, in.CreatedAt = id, u.rows[i].UserID, u.rows[i].CreatedAt
		u.rows[i] = in
		writeJSON(w, http.StatusOK, []row{in})

		return
	}

	writeJSON(w, http.StatusOK, []row{})
}

func (u *upstream) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := eqFilter(r, "id")

	u.mu.Lock()
	defer u.mu.Unlock()

	u.deletes++

	deleted := []row{}
	u.rows = slices.DeleteFunc(u.rows, func(q row) bool {
		if q.ID == id {
			deleted = append(deleted, q)
			return true
		}
		return false
	})

	writeJSON(w, http.StatusOK, deleted)
}

func (u *upstream) email(w http.ResponseWriter, r *http.Request) {
	var in sentEmail
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"name": "validation_error", "message": err.Error()})
		return
	}

	for _, to := range in.To {
		if strings.HasPrefix(to, "bounce@") {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"name":    "validation_error",
				"message": fmt.Sprintf("%s is on the suppression list", to),
			})
			return
		}
	}

	u.mu.Lock()
	u.emails = append(u.emails, in)
	id := fmt.Sprintf("em_%d", len(u.emails))
	u.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (u *upstream) checkout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}

	if params["line_items[0][price]"] == "price_missing" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{
			"type":    "invalid_request_error",
			"code":    "resource_missing",
			"message": "No such price: 'price_missing'",
		}})
		return
	}

	u.mu.Lock()
	u.checkouts = append(u.checkouts, params)
	id := fmt.Sprintf("cs_test_%d", len(u.checkouts))
	u.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"object": "checkout.session",
		"url":    "https://checkout.stripe.test/c/pay/" + id,
	})
}
