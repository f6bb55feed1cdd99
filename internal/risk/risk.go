// Package risk maps a price impact fraction to qualitative bands.
package risk

import "math"

// Band is a qualitative risk label.
type Band string

// Unknown is returned for NaN or infinite impact.
const Unknown Band = "unknown"

// Inline bands.
const (
	Safe    Band = "safe"
	Caution Band = "caution"
	Danger  Band = "danger"
)

// Summary bands. Caution is shared with the inline set.
const (
	OK    Band = "ok"
	High  Band = "high"
	Avoid Band = "don't"
)

// Inline classifies impact for per-quote display.
func Inline(impact float64) Band {
	switch {
	case !finite(impact):
		return Unknown
	case impact < 0.005:
		return Safe
	case impact < 0.02:
		return Caution
	default:
		return Danger
	}
}

// Summary classifies impact for a sell recommendation.
func Summary(impact float64) Band {
	switch {
	case !finite(impact):
		return Unknown
	case impact < 0.05:
		return OK
	case impact < 0.20:
		return Caution
	case impact < 0.50:
		return High
	default:
		return Avoid
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
