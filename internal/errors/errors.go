// Package errors holds the error taxonomy of the pipeline.
//
// Input-level and write-level errors abort a run. Row-level problems never
// surface as errors to callers; stages count them in a Counter instead.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrMissingRequiredInput: the orders feed is absent or unreadable.
	ErrMissingRequiredInput = errors.New("missing required input")

	// ErrOptionalInputAbsent: the price feed is absent. Never fatal.
	ErrOptionalInputAbsent = errors.New("optional input absent")

	// ErrRowValidation marks a single malformed row or entry.
	ErrRowValidation = errors.New("row validation failed")

	// ErrSchemaMismatch: a feed header or a persisted table does not carry
	// the expected columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrLayerWrite: a persisted table could not be written completely.
	ErrLayerWrite = errors.New("layer write failed")

	// ErrInvalidConfig: the run configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrVerification: published datasets disagree with each other.
	ErrVerification = errors.New("verification failed")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// ============================================================================
// Stage errors
// ============================================================================

// StageError attributes a fatal error to the pipeline stage that raised it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with its stage. A nil err stays nil.
func NewStageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" when none is.
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ============================================================================
// Error constructors
// ============================================================================

// NewRowError creates a row validation error with context.
func NewRowError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrRowValidation)
}

// NewMissingColumn creates a schema mismatch error for a missing column.
func NewMissingColumn(source, column string) error {
	return fmt.Errorf("%s: column %q not found: %w", source, column, ErrSchemaMismatch)
}

// NewValidation creates a configuration validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// ============================================================================
// Row drop counter
// ============================================================================

// Counter tallies dropped rows or entries by reason.
type Counter struct {
	counts map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add records one drop for reason.
func (c *Counter) Add(reason string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[reason]++
}

// Get returns the number of drops recorded for reason.
func (c *Counter) Get(reason string) int {
	return c.counts[reason]
}

// Total returns the number of drops across all reasons.
func (c *Counter) Total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// String renders the counts sorted by reason, e.g. "invalid_products=1 missing_order_id=2".
func (c *Counter) String() string {
	keys := make([]string, 0, len(c.counts))
	for k := range c.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, c.counts[k])
	}
	return strings.Join(parts, " ")
}
