package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidResult is matched by every *InvalidResultError
var ErrInvalidResult = errors.New("invalid match result")

// InvalidResultError reports a result that is not exactly 0, 0.5 or 1
type InvalidResultError struct {
	Input any
}

func (e *InvalidResultError) Error() string {
	return fmt.Sprintf("invalid match result %v: expected 1, 0 or 0.5", e.Input)
}

// Is makes errors.Is(err, ErrInvalidResult) succeed
func (e *InvalidResultError) Is(target error) bool {
	return target == ErrInvalidResult
}

// ParseResult converts a raw result for side A into 0, 0.5 or 1.
// Numbers and numeric strings are accepted, as well as "½", "1/2" and "=" for a draw.
func ParseResult(raw any) (float64, error) {
	var value float64

	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case string:
		s := strings.TrimSpace(v)
		switch s {
		case "½", "1/2", "=":
			return 0.5, nil
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, &InvalidResultError{Input: raw}
		}
		value = parsed
	default:
		return 0, &InvalidResultError{Input: raw}
	}

	switch value {
	case 0.0, 0.5, 1.0:
		return value, nil
	default:
		return 0, &InvalidResultError{Input: raw}
	}
}

// RecordResult returns m with side A scored from raw and side B given the
// complementary score. On error m is returned unchanged.
func RecordResult(m Match, raw any) (Match, error) {
	value, err := ParseResult(raw)
	if err != nil {
		return m, err
	}

	scoreA := value
	scoreB := 1.0 - value
	m[0].Score = &scoreA
	m[1].Score = &scoreB
	return m, nil
}
