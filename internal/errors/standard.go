// Package errors provides the internal-error signal of the checker.
// Internal errors mark states that valid input can never reach (a nil
// collaborator, a kind switch falling through); they are logged, never
// reported as user diagnostics.
package errors

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInternal ErrorCategory = "INTERNAL"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

func newStandardError(skip int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Internal builds an internal error, logs it and returns it.
func Internal(logger zerolog.Logger, code, message string, context map[string]interface{}) *StandardError {
	err := newStandardError(2, CategoryInternal, code, message, context)

	ev := logger.Error().
		Str("category", string(err.Category)).
		Str("code", err.Code).
		Str("caller", err.Caller)
	for k, v := range context {
		ev = ev.Interface(k, v)
	}
	ev.Msg(err.Message)

	return err
}

// Common internal error constructors

func NilCollaborator(logger zerolog.Logger, what string) *StandardError {
	return Internal(logger, "NIL_COLLABORATOR",
		fmt.Sprintf("required collaborator %s is nil", what),
		map[string]interface{}{"collaborator": what})
}

func UnexpectedKind(logger zerolog.Logger, operation, kind string) *StandardError {
	return Internal(logger, "UNEXPECTED_KIND",
		fmt.Sprintf("unexpected type kind %s in %s", kind, operation),
		map[string]interface{}{"operation": operation, "kind": kind})
}

func NoFields(logger zerolog.Logger, typeName string) *StandardError {
	return Internal(logger, "NO_FIELDS",
		fmt.Sprintf("field access on type %s that cannot have fields", typeName),
		map[string]interface{}{"type": typeName})
}
