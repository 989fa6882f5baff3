// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrDataUnavailable     = errors.New("market data unavailable")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInsufficientCash    = errors.New("insufficient cash")
	ErrInsufficientShares  = errors.New("insufficient shares")
	ErrPriceOutOfRange     = errors.New("price out of range")
	ErrPositionLimit       = errors.New("position limit reached")
	ErrCorruptState        = errors.New("corrupt ledger state")
	ErrRecommendationParse = errors.New("recommendation parse failed")
	ErrConfigInvalid       = errors.New("invalid configuration")
)

// DataUnavailableError reports that no market data exists for a ticker
// on a date (halted security, delisted ticker, non-trading day) after
// retry and fallback were exhausted. The cycle recovers by using the
// last known price with a staleness flag; it never invents a price.
type DataUnavailableError struct {
	Ticker string
	Date   time.Time
	Err    error
}

func (e *DataUnavailableError) Error() string {
	day := e.Date.Format("2006-01-02")
	if e.Err != nil {
		return fmt.Sprintf("no market data for %s on %s: %v", e.Ticker, day, e.Err)
	}
	return fmt.Sprintf("no market data for %s on %s", e.Ticker, day)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrDataUnavailable) match regardless of cause.
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// NewDataUnavailableError creates a new DataUnavailableError.
func NewDataUnavailableError(ticker string, date time.Time, err error) *DataUnavailableError {
	return &DataUnavailableError{Ticker: ticker, Date: date, Err: err}
}

// RecommendationParseError reports one malformed item in a provider
// response. Recovery is local: the item is dropped, the batch survives.
type RecommendationParseError struct {
	Provider string
	Raw      string
	Err      error
}

func (e *RecommendationParseError) Error() string {
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("unparseable recommendation from %s: %v (raw: %q)", e.Provider, e.Err, raw)
}

func (e *RecommendationParseError) Unwrap() error { return e.Err }

func (e *RecommendationParseError) Is(target error) bool {
	return target == ErrRecommendationParse
}

// NewRecommendationParseError creates a new RecommendationParseError.
func NewRecommendationParseError(provider, raw string, err error) *RecommendationParseError {
	return &RecommendationParseError{Provider: provider, Raw: raw, Err: err}
}

// InvalidQuantityError rejects a trade intent with a non-positive size.
type InvalidQuantityError struct {
	Ticker string
	Shares float64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity for %s: %g shares (must be > 0)", e.Ticker, e.Shares)
}

func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// InsufficientCashError rejects a buy whose cost exceeds the cash balance.
type InsufficientCashError struct {
	Ticker    string
	Required  float64
	Available float64
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash for %s: need $%.2f, have $%.2f", e.Ticker, e.Required, e.Available)
}

func (e *InsufficientCashError) Is(target error) bool {
	return target == ErrInsufficientCash
}

// InsufficientSharesError rejects a sell larger than the held position.
// Short selling is not supported.
type InsufficientSharesError struct {
	Ticker    string
	Requested float64
	Held      float64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: selling %g but only hold %g", e.Ticker, e.Requested, e.Held)
}

func (e *InsufficientSharesError) Is(target error) bool {
	return target == ErrInsufficientShares
}

// PriceOutOfRangeError rejects a fill price outside the day's traded
// range, catching fat-finger entries and hallucinated fills.
type PriceOutOfRangeError struct {
	Ticker string
	Price  float64
	Low    float64
	High   float64
}

func (e *PriceOutOfRangeError) Error() string {
	return fmt.Sprintf("price %.2f for %s outside day range %.2f-%.2f", e.Price, e.Ticker, e.Low, e.High)
}

func (e *PriceOutOfRangeError) Is(target error) bool {
	return target == ErrPriceOutOfRange
}

// PositionLimitError rejects a buy that would open a position beyond
// the configured concentration limit.
type PositionLimitError struct {
	Ticker string
	Limit  int
}

func (e *PositionLimitError) Error() string {
	return fmt.Sprintf("cannot open %s: already holding the maximum of %d positions", e.Ticker, e.Limit)
}

func (e *PositionLimitError) Is(target error) bool {
	return target == ErrPositionLimit
}

// CorruptStateError reports inconsistent persisted snapshot rows. This
// is the only error class that aborts the cycle: once the audit trail
// cannot be trusted, every downstream computation is suspect.
type CorruptStateError struct {
	Date   string
	Reason string
}

func (e *CorruptStateError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("corrupt ledger state for %s: %s", e.Date, e.Reason)
	}
	return fmt.Sprintf("corrupt ledger state: %s", e.Reason)
}

func (e *CorruptStateError) Is(target error) bool {
	return target == ErrCorruptState
}

// NewCorruptStateError creates a new CorruptStateError.
func NewCorruptStateError(date, reason string) *CorruptStateError {
	return &CorruptStateError{Date: date, Reason: reason}
}

// IsValidation reports whether err is a trade-intent validation failure.
// Validation failures are local to one intent and never abort the cycle.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInsufficientCash) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrPriceOutOfRange) ||
		errors.Is(err, ErrPositionLimit)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
