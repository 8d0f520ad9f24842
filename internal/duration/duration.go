// Package duration converts between second counts and the short human strings
// used throughout the tracker ("42 s", "5 m", "1.50 h").
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidDuration is matched by every *ParseError.
var ErrInvalidDuration = errors.New("invalid duration")

// ParseError reports user input that could not be read as a duration.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid duration %q", e.Input)
	}
	return fmt.Sprintf("invalid duration %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalidDuration as a match so callers need not type-assert.
func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidDuration
}

type unit struct {
	factor int64
	suffix string
}

var units = []unit{
	{factor: 1, suffix: "s"},
	{factor: 60, suffix: "m"},
	{factor: 3600, suffix: "h"},
}

// Format renders seconds in the largest unit whose value stays below 60 of
// the next unit up. Fractions are printed with two decimals only when the
// count does not divide evenly.
func Format(seconds int64) string {
	u := units[len(units)-1]
	for _, candidate := range units {
		if seconds < 60*candidate.factor {
			u = candidate
			break
		}
	}
	if seconds%u.factor != 0 {
		return fmt.Sprintf("%0.2f %s", float64(seconds)/float64(u.factor), u.suffix)
	}
	return fmt.Sprintf("%d %s", seconds/u.factor, u.suffix)
}

// Parse reads "90", "5m", "1.5 h" or "2,5m" and returns the value in seconds.
// Empty input is zero. An unknown unit letter is read as seconds.
func Parse(input string) (float64, error) {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return 0, nil
	}

	var number, suffix string
	switch fields := strings.Fields(text); {
	case len(fields) == 2:
		number, suffix = fields[0], fields[1]
	case len(fields) > 2:
		return 0, &ParseError{Input: input, Err: errors.New("too many fields")}
	default:
		last := []rune(text)
		if unicode.IsDigit(last[len(last)-1]) {
			number = text
		} else {
			number = string(last[:len(last)-1])
			suffix = string(last[len(last)-1])
		}
	}

	number = strings.ReplaceAll(number, ",", ".")
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, &ParseError{Input: input, Err: err}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ParseError{Input: input, Err: errors.New("not a finite number")}
	}

	factor := int64(1)
	for _, u := range units {
		if u.suffix == suffix {
			factor = u.factor
			break
		}
	}
	return value * float64(factor), nil
}

// Seconds is Parse truncated to whole seconds.
func Seconds(input string) (int64, error) {
	value, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return int64(value), nil
}
