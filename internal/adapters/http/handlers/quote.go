package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JxWayne890/dealflow/internal/adapters/http/dto"
	"github.com/JxWayne890/dealflow/internal/adapters/http/middleware"
	"github.com/JxWayne890/dealflow/internal/app"
)

// QuoteHandler handles the quote endpoints. Every route acts on behalf of
// the authenticated broker.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// RegisterRoutes registers the quote routes on rg. The deduplicate route is
// static and wins over the :id parameter.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.CreateQuote)
	quotes.POST("/deduplicate", h.Deduplicate)
	quotes.GET("/:id", h.GetQuote)
	quotes.PUT("/:id", h.UpdateQuote)
	quotes.DELETE("/:id", h.DeleteQuote)
}

// ListQuotes handles GET /api/v1/quotes
// Returns the broker's quotes newest first, one cursor page at a time.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} dto.Page[dto.QuoteResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &page); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	quotes, err := h.service.ListQuotes(c.Request.Context(), owner)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp, err := dto.PageQuotes(quotes, &page)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "invalid cursor")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetQuote handles GET /api/v1/quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	quote, err := h.service.GetQuote(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// CreateQuote handles POST /api/v1/quotes
//
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	quote, err := h.service.CreateQuote(c.Request.Context(), owner, req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// UpdateQuote handles PUT /api/v1/quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	q := req.ToDomain()
	q.ID = c.Param("id")

	quote, err := h.service.UpdateQuote(c.Request.Context(), owner, q)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// DeleteQuote handles DELETE /api/v1/quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	if err := h.service.DeleteQuote(c.Request.Context(), owner, c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Deduplicate handles POST /api/v1/quotes/deduplicate
// Runs one duplicate resolution pass. The body is optional; without a
// snapshot the broker's stored quotes are resolved.
//
// @Summary Remove duplicate quotes
// @Tags quotes
// @Accept json
// @Produce json
// @Success 200 {object} dto.DedupeResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/deduplicate [post]
func (h *QuoteHandler) Deduplicate(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.DedupeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "malformed request body")
		return
	}

	result, err := h.service.Deduplicate(c.Request.Context(), owner, req.Snapshot(owner))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDedupeResponse(result))
}

// requireOwner answers 401 when no broker identity reached the handler.
func requireOwner(c *gin.Context) (string, bool) {
	owner := middleware.OwnerID(c)
	if owner == "" {
		dto.RespondWithErrorCode(c, dto.ErrorCodeUnauthorized, "authentication required")
		return "", false
	}

	return owner, true
}
