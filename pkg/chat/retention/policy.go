package retention

import (
	"fmt"
	"time"
)

// InvalidRetentionError reports a non-positive retention period. It is
// returned before any deletion occurs and is never silently defaulted.
type InvalidRetentionError struct {
	Hours int
}

// Error implements the error interface.
func (e *InvalidRetentionError) Error() string {
	return fmt.Sprintf("invalid retention period: %d hours (must be a positive integer)", e.Hours)
}

// ValidateRetention checks that the retention period is a positive number
// of hours.
func ValidateRetention(hours int) error {
	if hours <= 0 {
		return &InvalidRetentionError{Hours: hours}
	}
	return nil
}

// Cutoff returns the dividing line between data to keep and data to
// delete: now minus the retention period. Callers must capture a single
// now for an entire run so that every phase uses an identical cutoff.
func Cutoff(hours int, now time.Time) time.Time {
	return now.Add(-time.Duration(hours) * time.Hour)
}
