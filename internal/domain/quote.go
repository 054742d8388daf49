package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DealType categorises the financing behind a quote.
type DealType string

// Deal types offered by the broker UI. The store may hold others; the
// resolver compares them as opaque tags.
const (
	DealTypeDSCR     DealType = "DSCR"
	DealTypeFixFlip  DealType = "Fix & Flip"
	DealTypeBridge   DealType = "Bridge"
	DealTypeRefi     DealType = "Cash-Out Refi"
	DealTypeNewBuild DealType = "New Construction"
)

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

// Known statuses.
const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusDeclined QuoteStatus = "declined"
)

// Quote is a loan quote sent by a broker to an investor.
// ID is assigned by the quote store and is empty until the quote is persisted.
type Quote struct {
	ID              string
	OwnerID         string
	InvestorName    string
	InvestorEmail   string
	PropertyAddress string
	LoanAmount      decimal.Decimal
	Rate            decimal.Decimal
	DealType        DealType
	Status          QuoteStatus
	CreatedAt       time.Time
}

// DuplicateKey is the business identity of a quote. Two quotes with equal
// keys describe the same offer regardless of ID or CreatedAt.
//
// Numeric fields hold the canonical decimal string so 7.5 and 7.50 compare equal.
type DuplicateKey struct {
	InvestorName    string
	InvestorEmail   string
	PropertyAddress string
	LoanAmount      string
	Rate            string
	DealType        DealType
	Status          QuoteStatus
}

// Key returns the quote's duplicate key.
func (q Quote) Key() DuplicateKey {
	return DuplicateKey{
		InvestorName:    q.InvestorName,
		InvestorEmail:   q.InvestorEmail,
		PropertyAddress: q.PropertyAddress,
		LoanAmount:      q.LoanAmount.String(),
		Rate:            q.Rate.String(),
		DealType:        q.DealType,
		Status:          q.Status,
	}
}

// Persisted reports whether the quote has a store-assigned ID.
func (q Quote) Persisted() bool {
	return q.ID != ""
}

// Validate checks the rules a quote must satisfy before it is written.
func (q Quote) Validate() error {
	switch {
	case strings.TrimSpace(q.InvestorName) == "":
		return NewValidationError("investorName", "is required")
	case strings.TrimSpace(q.PropertyAddress) == "":
		return NewValidationError("propertyAddress", "is required")
	case !q.LoanAmount.IsPositive():
		return NewValidationErrorWithValue("loanAmount", "must be greater than zero", q.LoanAmount.String())
	case q.Rate.IsNegative():
		return NewValidationErrorWithValue("rate", "must not be negative", q.Rate.String())
	case q.DealType == "":
		return NewValidationError("dealType", "is required")
	case q.Status == "":
		return NewValidationError("status", "is required")
	}

	return nil
}
