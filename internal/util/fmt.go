// Driftback - Pluggable Backup Orchestration Framework
// Copyright 2026 Driftback Authors
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/driftback/driftback

package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// byte units use binary (1024-based) multipliers, matching the size strings
// accepted in backup configuration files.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders a byte count as a human-readable string with the given
// number of decimal places, e.g. FormatBytes(4831838208, 2) == "4.50GB".
func FormatBytes(n int64, precision int) string {
	sign := ""
	v := float64(n)
	if v < 0 {
		sign = "-"
		v = -v
	}
	exp := 0
	for v >= 1024 && exp < len(byteUnits)-1 {
		v /= 1024
		exp++
	}
	return fmt.Sprintf("%s%.*f%s", sign, precision, v, byteUnits[exp])
}

// ParseBytes parses a size string such as "4.5G", "128M", "1024" or "2TB"
// into a byte count. Units are binary; a trailing "B" is optional and the
// unit letter is case-insensitive. Negative sizes are accepted.
func ParseBytes(s string) (int64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, fmt.Errorf("empty size string")
	}
	body := strings.TrimSuffix(strings.ToUpper(text), "B")
	multiplier := float64(1)
	if len(body) > 0 {
		switch body[len(body)-1] {
		case 'K':
			multiplier = 1 << 10
		case 'M':
			multiplier = 1 << 20
		case 'G':
			multiplier = 1 << 30
		case 'T':
			multiplier = 1 << 40
		case 'P':
			multiplier = 1 << 50
		case 'E':
			multiplier = 1 << 60
		}
		if multiplier != 1 {
			body = body[:len(body)-1]
		}
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(body), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size string %q", s)
	}
	result := value * multiplier
	if result > math.MaxInt64 || result < math.MinInt64 {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return int64(result), nil
}

// FormatInterval renders a duration the way backup job summaries report it:
// whole weeks, days, hours and minutes, with seconds carrying two decimals.
func FormatInterval(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	units := []struct {
		name string
		span float64
	}{
		{"week", 7 * 86400},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
	}
	var parts []string
	for _, u := range units {
		if n := math.Floor(seconds / u.span); n >= 1 {
			label := u.name
			if n > 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", int64(n), label))
			seconds -= n * u.span
		}
	}
	if seconds > 0 || len(parts) == 0 {
		label := "seconds"
		if seconds == 1 {
			label = "second"
		}
		parts = append(parts, fmt.Sprintf("%.2f %s", seconds, label))
	}
	return strings.Join(parts, ", ")
}
