package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/domain"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// ErrorResponse is the union of the error bodies the downstream APIs send.
//
//	PostgREST: {"code":"23505","message":"...","details":"...","hint":null}
//	Resend:    {"statusCode":422,"name":"validation_error","message":"..."}
type ErrorResponse struct {
	Code       string `json:"code,omitempty"`
	Name       string `json:"name,omitempty"`
	Message    string `json:"message,omitempty"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// GetCode returns the provider's machine-readable code.
func (e *ErrorResponse) GetCode() string {
	if e.Code != "" {
		return e.Code
	}

	return e.Name
}

// GetMessage returns the provider's human-readable message.
func (e *ErrorResponse) GetMessage() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Details
}

// PostgREST and Postgres codes that map to domain errors.
const (
	pgCodeUniqueViolation = "23505"
	pgCodeCheckViolation  = "23514"
	pgCodeNotNull         = "23502"
	pgCodeInvalidText     = "22P02"
	pgrstCodeNoRows       = "PGRST116"
)

// ParseErrorResponse decodes an error body. It returns nil when the body is
// empty or carries neither a code nor a message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.GetCode() == "" && errResp.GetMessage() == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError translates a failed call into a domain error. clientErr is
// set when no response arrived; otherwise resp carries a non-2xx status.
// entityID names the record for not-found errors.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	if clientErr != nil {
		return mapClientError(clientErr, serviceName, operation)
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	return mapStatusCode(resp.StatusCode, errResp, serviceName, operation, entityID)
}

// UpstreamFromResponse builds the relayable error for a pass-through call:
// the provider's status, code and message travel to the browser unchanged.
func UpstreamFromResponse(resp *http.Response, provider string) error {
	errResp := ParseErrorResponse(resp.Body)

	message := http.StatusText(resp.StatusCode)
	code := ""
	if errResp != nil {
		code = errResp.GetCode()
		if m := errResp.GetMessage(); m != "" {
			message = m
		}
	}

	return domain.NewUpstreamError(provider, resp.StatusCode, code, message)
}

func mapClientError(err error, serviceName, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(serviceName, "circuit breaker open during "+operation)
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(serviceName, "max retries exceeded during "+operation)
	default:
		return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed: %v", operation, err))
	}
}

func mapStatusCode(status int, errResp *ErrorResponse, serviceName, operation, entityID string) error {
	message := fmt.Sprintf("%s failed with status %d", operation, status)
	code := ""
	if errResp != nil {
		code = errResp.GetCode()
		if m := errResp.GetMessage(); m != "" {
			message = m
		}
	}

	switch code {
	case pgrstCodeNoRows:
		return domain.NewNotFoundError(serviceName, entityID)
	case pgCodeUniqueViolation:
		return domain.NewConflictError(serviceName, message)
	case pgCodeCheckViolation, pgCodeNotNull, pgCodeInvalidText:
		return domain.NewValidationError("", message)
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, entityID)
	case status == http.StatusConflict:
		return domain.NewConflictError(serviceName, message)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, "rate limit exceeded")
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	default:
		return domain.NewValidationError("", message)
	}
}
