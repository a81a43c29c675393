package xtime

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var durationRe = regexp.MustCompile(`(\d*\.\d+|\d+)[^\d]*`)

// extendedUnits are the units supported on top of the ones of
// time.ParseDuration, in hours.
var extendedUnits = []struct {
	unit  string
	hours time.Duration
}{
	{"d", 24}, {"D", 24},
	{"w", 7 * 24}, {"W", 7 * 24},
	{"M", 30 * 24},
	{"y", 365 * 24}, {"Y", 365 * 24},
}

// ParseDuration parses a duration string, e.g. "10d", "-1.5w" or "3Y4M5d".
// On top of the units supported by time.ParseDuration, it accepts "d"="D"
// (days), "w"="W" (weeks), "M" (30 day months) and "y"="Y" (365 day years).
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	parts := durationRe.FindAllString(s, -1)
	if len(parts) == 0 {
		return 0, fmt.Errorf("invalid duration '%s'", orig)
	}

	var sum time.Duration
	for _, part := range parts {
		multiplier := time.Duration(1)
		for _, u := range extendedUnits {
			if strings.Contains(part, u.unit) {
				part = strings.ReplaceAll(part, u.unit, "h")
				multiplier = u.hours
				break
			}
		}

		dur, err := time.ParseDuration(part)
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", orig, err)
		}

		sum += dur * multiplier
	}

	if neg {
		sum = -sum
	}

	return sum, nil
}

// FormatDuration formats a duration into a string with friendly units.
// Returns strings like "10d", "-1w2d", "3Y4M5d", etc.
// Uses the same units as ParseDuration: "d", "w", "M", "Y".
// The round parameter specifies the smallest unit to include.
func FormatDuration(d time.Duration, round time.Duration) string {
	if d == 0 {
		return "0d"
	}

	// Round the duration to the specified precision
	if round > 0 {
		d = d.Round(round)
		if d == 0 {
			return "0d"
		}
	}

	neg := d < 0
	if neg {
		d = -d
	}

	hours := int64(d / time.Hour)

	// Convert to largest units first
	years := hours / (365 * 24)
	hours %= (365 * 24)

	months := hours / (30 * 24)
	hours %= (30 * 24)

	weeks := hours / (7 * 24)
	hours %= (7 * 24)

	days := hours / 24
	hours %= 24

	// Handle remaining time units
	remainder := d % time.Hour
	minutes := remainder / time.Minute
	remainder %= time.Minute
	seconds := remainder / time.Second
	remainder %= time.Second

	var parts []string

	if years > 0 {
		parts = append(parts, fmt.Sprintf("%dY", years))
	}
	if months > 0 {
		parts = append(parts, fmt.Sprintf("%dM", months))
	}
	if weeks > 0 {
		parts = append(parts, fmt.Sprintf("%dw", weeks))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 && round <= time.Hour {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && round <= time.Minute {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && round <= time.Second {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if remainder > 0 && round < time.Second {
		if remainder%time.Millisecond == 0 && round <= time.Millisecond {
			parts = append(parts, fmt.Sprintf("%dms", remainder/time.Millisecond))
		} else if remainder%time.Microsecond == 0 && round <= time.Microsecond {
			parts = append(parts, fmt.Sprintf("%dµs", remainder/time.Microsecond))
		} else if round <= time.Nanosecond {
			parts = append(parts, fmt.Sprintf("%dns", remainder/time.Nanosecond))
		}
	}

	// If no parts were added (shouldn't happen with the zero check above)
	if len(parts) == 0 {
		parts = append(parts, "0d")
	}

	result := strings.Join(parts, "")
	if neg {
		result = "-" + result
	}

	return result
}
