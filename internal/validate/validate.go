// Package validate implements the per-column validation rules applied to
// ingested CSV rows. Each validator is a pure check over a single raw cell
// value; failures are reported as *ValidationError values rather than by
// panicking, so callers propagate them explicitly.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBatchLength is the required length of a batch code.
	DefaultBatchLength = 20

	// DefaultDateLayout is the reference layout used when none is configured.
	DefaultDateLayout = "2006-01-02"
)

// ValidationError reports a value that failed validation. It is row-scoped
// and recoverable: the loader drops the offending row and carries on.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func failf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validator checks a single raw value. Implementations must not mutate
// shared state; a validator instance may be reused across any number of rows.
type Validator interface {
	Validate(value string) error
}

// BatchValidator ensures batch codes are letters only and exactly length
// characters long.
type BatchValidator struct {
	length  int
	pattern *regexp.Regexp
}

// NewBatchValidator builds a BatchValidator for the given length; a
// non-positive length falls back to DefaultBatchLength.
func NewBatchValidator(length int) *BatchValidator {
	if length <= 0 {
		length = DefaultBatchLength
	}
	return &BatchValidator{
		length:  length,
		pattern: regexp.MustCompile(fmt.Sprintf(`^[a-zA-Z]{%d}`, length)),
	}
}

// Validate fails unless value is exactly length letters. The pattern anchors
// only the prefix; the separate length comparison is what rejects longer
// all-letter values, so both checks stay.
func (v *BatchValidator) Validate(value string) error {
	if !v.pattern.MatchString(value) || len(value) != v.length {
		return failf("invalid batch provided: %s", value)
	}
	return nil
}

// BoolValidator accepts only "true" and "false", case-insensitively.
type BoolValidator struct{}

func (BoolValidator) Validate(value string) error {
	switch strings.ToLower(value) {
	case "true", "false":
		return nil
	}
	return failf("invalid boolean value: %s", value)
}

// DateTimeValidator checks that a value parses under a single Go reference
// layout. time.Parse rejects out-of-range calendar and clock fields (day 32,
// month 13, hour 24), which is exactly the strictness required here.
type DateTimeValidator struct {
	layout string
}

// NewDateTimeValidator builds a validator for the given layout; an empty
// layout falls back to DefaultDateLayout.
func NewDateTimeValidator(layout string) DateTimeValidator {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return DateTimeValidator{layout: layout}
}

func (v DateTimeValidator) Validate(value string) error {
	if _, err := time.Parse(v.layout, value); err != nil {
		return failf("invalid date value: %s. expected layout: %s", value, v.layout)
	}
	return nil
}

// FuncValidator delegates to an arbitrary parse function. Any error from the
// function is reported as a validation failure carrying the label and the
// underlying error.
type FuncValidator struct {
	label string
	fn    func(string) error
}

// NewFuncValidator wraps fn. label names the expected value kind in failure
// messages; when empty, "value" is used.
func NewFuncValidator(fn func(string) error, label string) FuncValidator {
	return FuncValidator{label: label, fn: fn}
}

func (v FuncValidator) Validate(value string) error {
	if err := v.fn(value); err != nil {
		label := v.label
		if label == "" {
			label = "value"
		}
		return failf("invalid %s provided: %s. error: %v", label, value, err)
	}
	return nil
}

// Integer returns a validator accepting base-10 integer strings. Decimals,
// alphanumerics, and words all fail.
func Integer() FuncValidator {
	return NewFuncValidator(func(s string) error {
		_, err := strconv.ParseInt(s, 10, 64)
		return err
	}, "integer")
}

// NotEmpty returns a validator rejecting empty or whitespace-only values.
func NotEmpty() FuncValidator {
	return NewFuncValidator(func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New("value cannot be empty or whitespace only")
		}
		return nil
	}, "")
}
