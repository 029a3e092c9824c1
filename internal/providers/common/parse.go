package common

import (
	"strings"

	"musicsaver/searchservice/internal/domain"
)

// OrUnknown collapses whitespace in a provider-supplied field and substitutes
// the sentinel when the upstream value is missing or blank.
func OrUnknown(raw string) string {
	value := CleanText(raw)
	if value == "" {
		return domain.UnknownField
	}
	return value
}

// CleanText trims and collapses internal whitespace runs to single spaces.
func CleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// MillisToSeconds converts a millisecond duration to whole seconds, truncating
// toward zero and flooring negatives at 0.
func MillisToSeconds(millis int64) int {
	if millis <= 0 {
		return 0
	}
	return int(millis / 1000)
}

// ClampSeconds floors a second count at 0.
func ClampSeconds(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}
