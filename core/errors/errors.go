// Package errors provides standardized error types and helpers for the
// waka-kana-conv codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of the conversion pipeline.
var (
	// ErrConfig indicates required configuration is missing or unreachable.
	ErrConfig = errors.New("configuration error")
	// ErrFormat indicates a requested field/tag/column is absent or the
	// input container is malformed for its declared format.
	ErrFormat = errors.New("format error")
	// ErrStructuralMismatch indicates the original and converted documents
	// disagree on verse/phrase structure in check mode.
	ErrStructuralMismatch = errors.New("structural mismatch")
	// ErrInvalidInput indicates invalid input or validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

// ConfigError represents a configuration failure with context.
// Fatal to the current request; never retried automatically.
type ConfigError struct {
	Option  string // Configuration option (e.g., "dictionaryPath")
	Value   string // Offending value, if any
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ConfigError) Error() string {
	switch {
	case e.Option != "" && e.Value != "":
		return fmt.Sprintf("invalid configuration %s=%q: %s", e.Option, e.Value, e.Message)
	case e.Option != "":
		return fmt.Sprintf("invalid configuration %s: %s", e.Option, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrConfig
}

// FormatError represents a container format failure with context.
type FormatError struct {
	Format   string // Container format (e.g., "csv", "xml", "docx")
	Location string // Field/tag/column or position involved, if any
	Message  string // Human-readable error message
	Err      error  // Underlying error, if any
}

func (e *FormatError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s format error at %s: %s", e.Format, e.Location, e.Message)
	}
	return fmt.Sprintf("%s format error: %s", e.Format, e.Message)
}

func (e *FormatError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrFormat
}

// StructuralMismatchError reports the first divergent location between an
// original and a converted document in check mode. It is the sole result of
// such a run; no mora comparison is attempted on misaligned input.
type StructuralMismatchError struct {
	Location  string // First divergent verse/phrase location
	Unit      string // "verse" or "phrase"
	Original  int    // Count in the original document
	Converted int    // Count in the converted document
}

func (e *StructuralMismatchError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("structural mismatch at %s: original has %d %ss, converted has %d",
			e.Location, e.Original, e.Unit, e.Converted)
	}
	return fmt.Sprintf("structural mismatch: original has %d %ss, converted has %d",
		e.Original, e.Unit, e.Converted)
}

func (e *StructuralMismatchError) Unwrap() error {
	return ErrStructuralMismatch
}

// ValidationError represents an input validation error with context.
type ValidationError struct {
	Field   string // Field name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewConfig creates a ConfigError.
func NewConfig(option, value, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// NewFormat creates a FormatError.
func NewFormat(format, location, message string) *FormatError {
	return &FormatError{
		Format:   format,
		Location: location,
		Message:  message,
	}
}

// NewStructuralMismatch creates a StructuralMismatchError.
func NewStructuralMismatch(location, unit string, original, converted int) *StructuralMismatchError {
	return &StructuralMismatchError{
		Location:  location,
		Unit:      unit,
		Original:  original,
		Converted: converted,
	}
}

// NewValidation creates a ValidationError.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
