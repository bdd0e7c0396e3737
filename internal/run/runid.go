// Package run drives the creation of an issue hierarchy: it plans resumption
// against the state store, walks the ordered graph, calls the tracker
// gateway with retries, and records every outcome durably so a repeated or
// interrupted invocation never creates duplicates.
package run

import (
	"fmt"
	"time"
)

// NewRunID returns a time-derived run identifier, e.g. "20260830_142501".
// The timestamp is UTC so run IDs sort chronologically regardless of the
// machine's zone.
func NewRunID() string {
	return time.Now().UTC().Format("20060102_150405")
}

// FormatDuration renders a duration the way the summary shows it:
// "42s", "3m 42s", or "1h 2m 3s".
func FormatDuration(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	mins := secs / 60
	secs %= 60
	if mins < 60 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%dh %dm %ds", mins/60, mins%60, secs)
}
