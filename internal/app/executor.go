package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JxWayne890/dealflow/internal/platform/logging"
)

// Pass-through calls to payment and mail providers run as a pipeline:
//
//	validate → perform → verify → respond
//
// Nothing reaches the provider until the input is valid, and nothing reaches
// the caller until the provider's answer has been checked.

// ExecutionStep names a pipeline stage.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the stage an operation failed in. The cause stays
// reachable through errors.Is and errors.As, so a provider's
// *domain.UpstreamError is still relayed.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// Executor runs operations with step logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation is one pipeline. Validate may normalise the input it is given;
// nil stages are skipped.
type Operation[I, P, O any] struct {
	Name     string
	Validate func(ctx context.Context, input *I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) error
	Respond  func(ctx context.Context, input I, performed P) (O, error)
}

// Execute runs op over input.
func Execute[I, P, O any](ctx context.Context, exec *Executor, op Operation[I, P, O], input I) (O, error) {
	var zero O

	logger := exec.logger
	if l := logging.FromContext(ctx); l != nil {
		logger = l
	}
	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, err error) (O, error) {
		logger.WarnContext(ctx, "operation failed",
			slog.String("step", string(step)),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)

		return zero, &ExecutionError{Step: step, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, &input); err != nil {
			return fail(StepValidate, err)
		}
	}

	var performed P
	if op.Perform != nil {
		var err error
		if performed, err = op.Perform(ctx, input); err != nil {
			return fail(StepPerform, err)
		}
	}

	if op.Verify != nil {
		if err := op.Verify(ctx, input, performed); err != nil {
			return fail(StepVerify, err)
		}
	}

	result := zero
	if op.Respond != nil {
		var err error
		if result, err = op.Respond(ctx, input, performed); err != nil {
			return fail(StepRespond, err)
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// GetExecutionStep returns the stage err failed in.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
