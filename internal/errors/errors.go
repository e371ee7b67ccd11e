// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	// ErrInvalidInputs is returned by the pricing kernel when spot, strike,
	// time, or volatility are non-positive. Callers treat the value as
	// unknown and degrade, never abort.
	ErrInvalidInputs = errors.New("invalid pricing inputs")
	// ErrNoSolution is returned by the IV solver when the market price is at
	// or below intrinsic value, so no volatility can reproduce it.
	ErrNoSolution = errors.New("no implied volatility solution")
	// ErrNoConvergence is returned when the IV solver fails to converge
	// within the bracket.
	ErrNoConvergence = errors.New("iv solver did not converge")
	// ErrMarketDataUnavailable marks a missing market-context field.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrRecommendationUnavailable is returned when the LLM advisor cannot
	// produce a recommendation; callers substitute the rule-based one.
	ErrRecommendationUnavailable = errors.New("recommendation unavailable")
	// ErrJournalNotFound is returned when a journal row id does not exist.
	ErrJournalNotFound = errors.New("journal entry not found")
	// ErrConfigInvalid marks a configuration validation failure.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// ParseError is returned when a trade description cannot be structured.
// It is the only failure surfaced to the caller as an error; it carries
// the supported formats as hints.
type ParseError struct {
	Message string
	Hints   []string
}

func (e *ParseError) Error() string {
	if len(e.Hints) == 0 {
		return fmt.Sprintf("could not parse trade: %q", e.Message)
	}
	return fmt.Sprintf("could not parse trade: %q (supported formats: %s)",
		e.Message, strings.Join(e.Hints, "; "))
}

// NewParseError creates a ParseError for the given raw message.
func NewParseError(message string, hints []string) *ParseError {
	return &ParseError{Message: message, Hints: hints}
}

// SizingError wraps a composite-sizer internal failure. The sizer never
// propagates it to callers; it records the fallback to fixed-fraction
// sizing instead.
type SizingError struct {
	Stage string
	Err   error
}

func (e *SizingError) Error() string {
	return fmt.Sprintf("sizing error in %s: %v", e.Stage, e.Err)
}

func (e *SizingError) Unwrap() error {
	return e.Err
}

// NewSizingError creates a new SizingError.
func NewSizingError(stage string, err error) *SizingError {
	return &SizingError{Stage: stage, Err: err}
}

// MarketDataError identifies which context field was unavailable and why.
type MarketDataError struct {
	Field string
	Err   error
}

func (e *MarketDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market data unavailable: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("market data unavailable: %s", e.Field)
}

func (e *MarketDataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMarketDataUnavailable
}

// NewMarketDataError creates a new MarketDataError.
func NewMarketDataError(field string, err error) *MarketDataError {
	return &MarketDataError{Field: field, Err: err}
}

// Is reports whether err matches target, delegating to the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As delegates to the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New delegates to the standard library.
func New(text string) error {
	return errors.New(text)
}
