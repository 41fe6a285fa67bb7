package anychem

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every *ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShapeMismatch is wrapped by every *ShapeError.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDiverged is returned when a training batch
	// produces a NaN or infinite cost.
	ErrDiverged = errors.New("training diverged")

	errEmptyDataset = errors.New("empty dataset")
)

// A ConfigError reports a hyperparameter which failed
// validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (c *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", c.Field, c.Reason)
}

// Unwrap returns ErrInvalidConfig.
func (c *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// A ShapeError reports a record whose dimensions do not
// match the model.
type ShapeError struct {
	RecordID string
	What     string
	Expected int
	Actual   int
}

func (s *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch: record %q: %s length should be %d, but got %d",
		s.RecordID, s.What, s.Expected, s.Actual)
}

// Unwrap returns ErrShapeMismatch.
func (s *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
