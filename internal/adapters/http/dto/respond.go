package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/JxWayne890/dealflow/internal/domain"
	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

const (
	// ContextKeyTraceID lets middleware pin the trace ID reported in error bodies.
	ContextKeyTraceID = "trace_id"

	headerRequestID = "X-Request-ID"

	msgInternal    = "an internal error occurred"
	msgUnavailable = "a dependency is temporarily unavailable"
)

// MapDomainError maps a domain error to an HTTP status code and error response.
// Unknown errors are mapped to 500 Internal Server Error with a generic message.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	if upstream, ok := domain.AsUpstream(err); ok {
		return upstreamResponse(upstream)
	}

	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound, NewErrorResponse(ErrorCodeNotFound, err.Error())

	case domain.IsConflict(err):
		return http.StatusConflict, NewErrorResponse(ErrorCodeConflict, err.Error())

	case domain.IsValidation(err):
		return http.StatusBadRequest, validationResponse(err)

	case domain.IsForbidden(err):
		return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, err.Error())

	case domain.IsUnavailable(err):
		// The dependency name stays in the logs.
		return http.StatusServiceUnavailable, NewErrorResponse(ErrorCodeUnavailable, msgUnavailable)

	default:
		return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, msgInternal)
	}
}

// MapPassThroughError maps errors from the checkout and email relays. The
// provider's own answer is relayed with its status; input errors are 400;
// every other local failure is a 500.
func MapPassThroughError(err error) (int, *ErrorResponse) {
	if upstream, ok := domain.AsUpstream(err); ok {
		return upstreamResponse(upstream)
	}

	if domain.IsValidation(err) {
		return http.StatusBadRequest, validationResponse(err)
	}

	if domain.IsForbidden(err) {
		return http.StatusForbidden, NewErrorResponse(ErrorCodeForbidden, err.Error())
	}

	return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, msgInternal)
}

// HandleError writes the mapped error response and logs server-side failures.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	respond(c, status, resp, err)
}

// HandlePassThroughError is HandleError for the relay endpoints.
func HandlePassThroughError(c *gin.Context, err error) {
	status, resp := MapPassThroughError(err)
	respond(c, status, resp, err)
}

// RespondWithErrorCode writes an error response with a specific error code.
// Use this for adapter-level errors that don't originate from domain errors.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	c.JSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// RespondWithValidationErrors writes a 400 response with field-level validation errors.
func RespondWithValidationErrors(c *gin.Context, fieldErrors map[string]string) {
	resp := NewErrorResponseWithDetails(ErrorCodeValidation, "request validation failed", fieldErrors)
	c.JSON(http.StatusBadRequest, resp.WithTraceID(GetTraceID(c)))
}

// RespondWithBindError answers a failed BindAndValidate: field errors when
// the validator or a Validatable produced them, a plain bad request otherwise.
func RespondWithBindError(c *gin.Context, err error) {
	if fields := ValidationErrors(err); len(fields) > 0 {
		RespondWithValidationErrors(c, fields)
		return
	}

	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) && fieldErr.Field != "" {
		RespondWithValidationErrors(c, map[string]string{fieldErr.Field: fieldErr.Message})
		return
	}

	RespondWithErrorCode(c, ErrorCodeBadRequest, "malformed request body")
}

// AbortWithErrorCode aborts the request chain with a specific error code.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(HTTPStatusFromCode(code), NewErrorResponse(code, message).WithTraceID(GetTraceID(c)))
}

// GetTraceID returns the ID error responses are tagged with: an explicitly
// set trace_id, then the active span, then the request ID header.
func GetTraceID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyTraceID); ok {
		if id, ok := v.(string); ok {
			return id
		}

		return ""
	}

	if c.Request == nil {
		return ""
	}

	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return c.GetHeader(headerRequestID)
}

func respond(c *gin.Context, status int, resp *ErrorResponse, err error) {
	resp.TraceID = GetTraceID(c)

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			"status", status,
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

func upstreamResponse(upstream *domain.UpstreamError) (int, *ErrorResponse) {
	status := upstream.StatusCode
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}

	details := map[string]string{"provider": upstream.Provider}
	if upstream.Code != "" {
		details["code"] = upstream.Code
	}

	message := upstream.Message
	if message == "" {
		message = http.StatusText(status)
	}

	return status, NewErrorResponseWithDetails(ErrorCodeUpstream, message, details)
}

func validationResponse(err error) *ErrorResponse {
	resp := NewErrorResponse(ErrorCodeValidation, err.Error())

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) && validationErr.Field != "" {
		resp.Error.Details = map[string]string{validationErr.Field: validationErr.Message}
	}

	return resp
}
