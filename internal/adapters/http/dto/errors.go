// Package dto holds the HTTP request and response shapes and the mapping
// from domain errors onto them.
package dto

import "net/http"

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail is the machine-readable part of an ErrorResponse. Details
// carries field errors for validation failures and provider/code for
// relayed provider rejections.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeConflict     = "CONFLICT"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeBadRequest   = "BAD_REQUEST"
	ErrorCodeForbidden    = "FORBIDDEN"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout      = "TIMEOUT"
	ErrorCodeRateLimited  = "RATE_LIMITED"
	ErrorCodeInternal     = "INTERNAL_ERROR"

	// ErrorCodeUpstream marks a Stripe or Resend rejection. Its status is
	// the provider's, so HTTPStatusFromCode only supplies the fallback.
	ErrorCodeUpstream = "UPSTREAM_ERROR"
)

var statusByCode = map[string]int{
	ErrorCodeNotFound:     http.StatusNotFound,
	ErrorCodeConflict:     http.StatusConflict,
	ErrorCodeValidation:   http.StatusBadRequest,
	ErrorCodeBadRequest:   http.StatusBadRequest,
	ErrorCodeForbidden:    http.StatusForbidden,
	ErrorCodeUnauthorized: http.StatusUnauthorized,
	ErrorCodeUnavailable:  http.StatusServiceUnavailable,
	ErrorCodeTimeout:      http.StatusGatewayTimeout,
	ErrorCodeRateLimited:  http.StatusTooManyRequests,
	ErrorCodeUpstream:     http.StatusBadGateway,
}

// HTTPStatusFromCode returns the status a code is served with. Unknown
// codes are 500.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NewErrorResponse builds an envelope without details.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// NewErrorResponseWithDetails builds an envelope with details.
func NewErrorResponseWithDetails(code, message string, details map[string]string) *ErrorResponse {
	resp := NewErrorResponse(code, message)
	resp.Error.Details = details

	return resp
}

// WithTraceID tags the envelope and returns it.
func (e *ErrorResponse) WithTraceID(traceID string) *ErrorResponse {
	e.TraceID = traceID
	return e
}
