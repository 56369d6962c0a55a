package data

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrInvalidDate is returned when a date cannot be understood
var ErrInvalidDate = errors.New("invalid date")

// NormalizeDate parses a date written in any common form and returns it
// in DateLayout.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return t.Format(DateLayout), nil
}

// ParseDateOrZero returns the parsed date or the zero time for an empty value
func ParseDateOrZero(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	normalized, err := NormalizeDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(DateLayout, normalized)
}
