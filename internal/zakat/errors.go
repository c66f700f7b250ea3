package zakat

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is the single failure kind of the engine. Use errors.As with
// *InvalidInputError to learn which field failed.
var ErrInvalidInput = errors.New("zakat: invalid input")

// Reasons carried by InvalidInputError.
const (
	ReasonNegative          = "negative"
	ReasonNonFinite         = "non-finite"
	ReasonUnknownCategory   = "unknown category"
	ReasonUnknownIrrigation = "unknown irrigation method"
	ReasonRequired          = "required"
	ReasonNotPositive       = "must be positive"
	ReasonOutOfRange        = "out of range"
	ReasonNotNumber         = "not a number"
)

// InvalidInputError names the field and constraint that failed.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(fieldName, reason string) error {
	return &InvalidInputError{Field: fieldName, Reason: reason}
}

// Invalid builds an InvalidInputError for callers that validate request
// shape before reaching the engine (e.g. a missing JSON field).
func Invalid(fieldName, reason string) error {
	return invalid(fieldName, reason)
}

type field struct {
	name  string
	value decimal.Decimal
}

func nonNegative(fields ...field) error {
	for _, f := range fields {
		if f.value.IsNegative() {
			return invalid(f.name, ReasonNegative)
		}
	}
	return nil
}

// FromFloat converts a float boundary value (CLI flag, form input) into a
// decimal, rejecting NaN, ±Inf and negative values.
func FromFloat(fieldName string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, invalid(fieldName, ReasonNonFinite)
	}
	if v < 0 {
		return decimal.Zero, invalid(fieldName, ReasonNegative)
	}
	return decimal.NewFromFloat(v), nil
}

// ParseAmount parses a decimal string such as "85000000" or "84.999".
// Strings that spell non-finite values ("NaN", "Inf") are reported as such.
func ParseAmount(fieldName, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, invalid(fieldName, ReasonRequired)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		if isNonFiniteLiteral(s) {
			return decimal.Zero, invalid(fieldName, ReasonNonFinite)
		}
		return decimal.Zero, invalid(fieldName, ReasonNotNumber)
	}
	if v.IsNegative() {
		return decimal.Zero, invalid(fieldName, ReasonNegative)
	}
	return v, nil
}

func isNonFiniteLiteral(s string) bool {
	switch s {
	case "NaN", "nan", "Inf", "+Inf", "-Inf", "inf", "+inf", "-inf", "Infinity", "-Infinity", "+Infinity":
		return true
	}
	return false
}
