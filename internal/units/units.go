// Package units converts between display units (dollars, minutes, local
// datetimes) and storage units (integer cents, UTC instants).
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// LocalDateTimeLayout is the layout of a form-style local datetime value.
const LocalDateTimeLayout = "2006-01-02T15:04"

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMinutes  = errors.New("invalid minutes")
	ErrInvalidDateTime = errors.New("invalid datetime")
)

// DollarsToCents parses a decimal dollar string into integer cents.
// The empty string and anything that is not a finite number are invalid.
func DollarsToCents(text string) (int64, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	if !isDecimal(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	// Near 2^63 float64 cannot tell neighbouring cents apart, so both ends
	// of the range are open.
	cents := roundHalfUp(n * 100)
	if math.Abs(cents) >= int64Bound {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, text)
	}
	return int64(cents), nil
}

var int64Bound = math.Ldexp(1, 63)

// isDecimal rejects the Go-only forms ParseFloat accepts: digit
// separators and hexadecimal mantissas.
func isDecimal(s string) bool {
	if strings.ContainsRune(s, '_') {
		return false
	}
	u := strings.TrimLeft(s, "+-")
	return !strings.HasPrefix(u, "0x") && !strings.HasPrefix(u, "0X")
}

// CentsToDollars formats cents as dollars with exactly two decimals.
// A nil amount is treated as zero.
func CentsToDollars(cents *int64) string {
	if cents == nil {
		return FormatCents(0)
	}
	return FormatCents(*cents)
}

// FormatCents formats cents as dollars with exactly two decimals.
func FormatCents(cents int64) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = uint64(-(cents + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// WholeDollars rounds cents to whole dollars, halves toward +Inf.
func WholeDollars(cents int64) int64 {
	return int64(roundHalfUp(float64(cents) / 100))
}

// EndFromMinutes returns start plus the given number of played minutes.
// minutes must be a non-negative integer.
func EndFromMinutes(start time.Time, minutes string) (time.Time, error) {
	m, err := ParseMinutes(minutes)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(m) * time.Minute), nil
}

// ParseMinutes parses a non-negative integer minute count.
func ParseMinutes(text string) (int64, error) {
	m, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMinutes, text)
	}
	if m > math.MaxInt64/int64(time.Minute) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidMinutes, text)
	}
	return m, nil
}

// ElapsedLabel renders the played time between start and end as "Nm".
func ElapsedLabel(start time.Time, end *time.Time) string {
	if end == nil {
		return "In progress"
	}
	mins := roundHalfUp(end.Sub(start).Minutes())
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%dm", int64(mins))
}

// ParseLocalDateTime parses a "2006-01-02T15:04" value in loc.
// A nil loc means time.Local.
func ParseLocalDateTime(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(LocalDateTimeLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, text)
	}
	return t, nil
}

// FormatLocalDateTime is the inverse of ParseLocalDateTime.
func FormatLocalDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LocalDateTimeLayout)
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
