package domain

import (
	"errors"
	"fmt"
)

// Structural and configuration errors. Row-level problems never surface as
// errors; they are collected as RowError values on the NormalizeResult.
var (
	ErrEmptyInput          = errors.New("empty input")
	ErrMissingColumn       = errors.New("missing required column")
	ErrInvalidThresholds   = errors.New("invalid staffing thresholds")
	ErrInvalidHours        = errors.New("invalid operating hours")
	ErrInvalidAdjustment   = errors.New("invalid adjustment parameters")
	ErrNoMaintenanceWindow = errors.New("no maintenance window available")
)

// RowError records why a single input row was excluded from the run.
type RowError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"` // "timestamp", "amount" or "row"
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("line %d: %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}
