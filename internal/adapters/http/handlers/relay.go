package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
	"github.com/JxWayne890/dealflow/internal/adapters/http/middleware"
	"github.com/JxWayne890/dealflow/internal/app"
	"github.com/JxWayne890/dealflow/internal/domain"
)

// HeaderIdempotencyKey is forwarded to the provider unchanged.
const HeaderIdempotencyKey = "Idempotency-Key"

// RelayHandler serves the checkout and email pass-throughs. Provider
// answers are relayed with the provider's status.
type RelayHandler struct {
	billing *app.BillingService
	mail    *app.MailService
}

// NewRelayHandler creates the handler.
func NewRelayHandler(billing *app.BillingService, mail *app.MailService) *RelayHandler {
	return &RelayHandler{billing: billing, mail: mail}
}

// RegisterRoutes registers the relay routes on rg.
func (h *RelayHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/checkout-sessions", h.CreateCheckoutSession)
	rg.POST("/email", h.SendEmail)
}

// CreateCheckoutSession handles POST /api/v1/billing/checkout-sessions
// A missing userId defaults to the caller; naming another user is refused.
//
// @Summary Create a Stripe checkout session
// @Tags billing
// @Accept json
// @Produce json
// @Success 200 {object} dto.CheckoutResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/billing/checkout-sessions [post]
func (h *RelayHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	owner := middleware.OwnerID(c)
	switch {
	case req.UserID == "":
		req.UserID = owner
	case owner != "" && req.UserID != owner:
		dto.HandlePassThroughError(c, domain.NewForbiddenError("create checkout session", "userId does not match the caller"))
		return
	}

	if req.Email == "" {
		if claims := middleware.GetClaims(c); claims != nil {
			req.Email = claims.Email
		}
	}

	session, err := h.billing.CreateCheckoutSession(c.Request.Context(), req.ToDomain(c.GetHeader(HeaderIdempotencyKey)))
	if err != nil {
		dto.HandlePassThroughError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{SessionID: session.ID, URL: session.URL})
}

// SendEmail handles POST /api/v1/email
//
// @Summary Relay a transactional email
// @Tags email
// @Accept json
// @Produce json
// @Success 200 {object} dto.EmailResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/email [post]
func (h *RelayHandler) SendEmail(c *gin.Context) {
	var req dto.EmailRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	receipt, err := h.mail.Send(c.Request.Context(), req.ToDomain(c.GetHeader(HeaderIdempotencyKey)))
	if err != nil {
		dto.HandlePassThroughError(c, err)
		return
	}

	status := receipt.StatusCode
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		status = http.StatusOK
	}

	c.JSON(status, dto.EmailResponse{ID: receipt.ID})
}
