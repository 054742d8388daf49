package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JxWayne890/dealflow/internal/adapters/clients"
	"github.com/JxWayne890/dealflow/internal/domain"
)

// BaseAdapter is embedded by the downstream adapters. It owns the client and
// turns failed responses into domain errors.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a BaseAdapter.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

func (a *BaseAdapter) Client() *clients.Client { return a.client }

func (a *BaseAdapter) ServiceName() string { return a.serviceName }

// Call executes a request. On a 2xx answer it returns the body, which the
// caller must close. Any other outcome is mapped through MapHTTPError.
func (a *BaseAdapter) Call(
	ctx context.Context,
	method, path string,
	body any,
	operation, entityID string,
	opts ...clients.RequestOption,
) (io.ReadCloser, error) {
	resp, err := a.client.Request(ctx, method, path, body, opts...)
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// DecodeResponseForService is DecodeResponse with decode failures reported
// as the downstream being unavailable.
func DecodeResponseForService[T any](body io.ReadCloser, serviceName string) (*T, error) {
	result, err := DecodeResponse[T](body)
	if err != nil {
		return nil, domain.NewUnavailableError(serviceName, err.Error())
	}

	return result, nil
}

// ValidateRequired rejects an empty external field.
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// Translator converts one external DTO into a domain value.
type Translator[External any, Domain any] func(ext *External) (Domain, error)

// TranslateSlice translates every item, stopping at the first failure.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, translated)
	}

	return result, nil
}
