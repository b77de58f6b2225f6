// Package common provides shared utilities for Vire Chart
package common

import "time"

// Freshness TTLs for cached bar data
const (
	FreshnessCurrentYear = 1 * time.Hour
	FreshnessPastYear    = 30 * 24 * time.Hour // closed years only change on corporate-action restatements
)

// FreshnessForYear returns how long bars for the given calendar year stay fresh.
// Years that have not ended yet keep receiving new bars.
func FreshnessForYear(year int, now time.Time) time.Duration {
	if year >= now.Year() {
		return FreshnessCurrentYear
	}
	return FreshnessPastYear
}
