// Package timefmt converts race durations between textual representations and
// fixed-point seconds (two decimal places).
package timefmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseError indicates a duration token that matches neither accepted shape,
// or one with negative fields.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid duration %q: %s", e.Token, e.Reason)
}

var secondsPerHour = decimal.NewFromInt(3600)

// Parse converts a duration token to seconds. Two shapes are accepted: a plain
// decimal number of seconds ("3600.50"), or a clock token ("01:00:00.50",
// "31:01.25"). A token containing a colon is always treated as a clock token.
// The result is rounded to two decimal places.
func Parse(token string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return decimal.Zero, &ParseError{Token: token, Reason: "empty value"}
	}

	if strings.Contains(trimmed, ":") {
		return parseClock(token, trimmed)
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &ParseError{Token: token, Reason: "not a number"}
	}
	if d.IsNegative() {
		return decimal.Zero, &ParseError{Token: token, Reason: "negative duration"}
	}
	return d.Round(2), nil
}

// parseClock handles MM:SS[.ff] and [H]H:MM:SS[.ff] tokens.
func parseClock(token, trimmed string) (decimal.Decimal, error) {
	parts := strings.Split(trimmed, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return decimal.Zero, &ParseError{Token: token, Reason: "expected MM:SS or HH:MM:SS"}
	}

	var hours, minutes int64
	var err error

	if len(parts) == 3 {
		hours, err = parseClockField(parts[0])
		if err != nil {
			return decimal.Zero, &ParseError{Token: token, Reason: "invalid hours field"}
		}
		parts = parts[1:]
	}

	minutes, err = parseClockField(parts[0])
	if err != nil {
		return decimal.Zero, &ParseError{Token: token, Reason: "invalid minutes field"}
	}

	seconds, err := decimal.NewFromString(parts[1])
	if err != nil || seconds.IsNegative() {
		return decimal.Zero, &ParseError{Token: token, Reason: "invalid seconds field"}
	}

	total := decimal.NewFromInt(hours*3600 + minutes*60).Add(seconds)
	return total.Round(2), nil
}

func parseClockField(field string) (int64, error) {
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative field: %d", v)
	}
	return v, nil
}

// Format renders seconds for display. Durations of one hour or more use
// HH:MM:SS.ff, shorter ones MM:SS.ff.
func Format(seconds decimal.Decimal) string {
	if seconds.Cmp(secondsPerHour) >= 0 {
		return formatLong(seconds)
	}
	return formatShort(seconds)
}

// FormatPenalty renders a penalty for display. Penalties always use the short
// MM:SS.ff shape; for values of an hour or more the minutes field simply
// exceeds 59, matching existing exports.
func FormatPenalty(seconds decimal.Decimal) string {
	return formatShort(seconds)
}

func formatLong(seconds decimal.Decimal) string {
	cents := seconds.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	h := cents / 360000
	m := (cents % 360000) / 6000
	s := (cents % 6000) / 100
	f := cents % 100
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, f)
}

func formatShort(seconds decimal.Decimal) string {
	cents := seconds.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	m := cents / 6000
	s := (cents % 6000) / 100
	f := cents % 100
	return fmt.Sprintf("%02d:%02d.%02d", m, s, f)
}
