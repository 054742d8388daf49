package dto

import "github.com/JxWayne890/dealflow/internal/domain"

// CheckoutRequest is the body of the checkout pass-through.
type CheckoutRequest struct {
	PriceID    string `json:"priceId"    validate:"required,notempty"`
	UserID     string `json:"userId"`
	Email      string `json:"email"      validate:"omitempty,email"`
	SuccessURL string `json:"successUrl" validate:"omitempty,url"`
	CancelURL  string `json:"cancelUrl"  validate:"omitempty,url"`
	Mode       string `json:"mode"       validate:"omitempty,oneof=subscription payment"`
}

// ToDomain converts the request.
func (r *CheckoutRequest) ToDomain(idempotencyKey string) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		PriceID:        r.PriceID,
		UserID:         r.UserID,
		Email:          r.Email,
		SuccessURL:     r.SuccessURL,
		CancelURL:      r.CancelURL,
		Mode:           domain.CheckoutMode(r.Mode),
		IdempotencyKey: idempotencyKey,
	}
}

// CheckoutResponse tells the browser where to go.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// EmailRequest is the body of the email relay.
type EmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"      validate:"required,min=1,max=50,dive,required,email"`
	Subject string   `json:"subject" validate:"required,notempty,max=998"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"replyTo" validate:"omitempty,email"`
}

// ToDomain converts the request.
func (r *EmailRequest) ToDomain(idempotencyKey string) domain.Email {
	return domain.Email{
		From:           r.From,
		To:             r.To,
		Subject:        r.Subject,
		HTML:           r.HTML,
		Text:           r.Text,
		ReplyTo:        r.ReplyTo,
		IdempotencyKey: idempotencyKey,
	}
}

// EmailResponse carries the provider's message ID.
type EmailResponse struct {
	ID string `json:"id"`
}
