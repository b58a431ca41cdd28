// Package format handles match-format code parsing and the overs-limit
// arithmetic tied to a format.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Well-known format codes.
const (
	CodeT10 = "T10"
	CodeT20 = "T20"
	CodeODI = "ODI"
)

var standardOvers = map[string]int{
	CodeT10: 10,
	CodeT20: 20,
	CodeODI: 50,
}

// customRegex matches CUSTOM-{overs}, e.g. CUSTOM-15.
var customRegex = regexp.MustCompile(`^CUSTOM-([1-9][0-9]{0,2})$`)

var (
	ErrInvalidFormat = errors.New("format: unknown match format")
	ErrInvalidOvers  = errors.New("format: overs limit out of range")
)

// Format is a parsed match format.
type Format struct {
	Code       string `json:"code"`
	OversLimit int    `json:"overs_limit"`
}

// Parse validates a format code string.
// Accepted: T10, T20, ODI, CUSTOM-{1..999}.
func Parse(code string) (*Format, error) {
	if overs, ok := standardOvers[code]; ok {
		return &Format{Code: code, OversLimit: overs}, nil
	}

	matches := customRegex.FindStringSubmatch(code)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected T10, T20, ODI or CUSTOM-{overs})",
			ErrInvalidFormat, code)
	}

	overs, err := strconv.Atoi(matches[1])
	if err != nil || overs < 1 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOvers, matches[1])
	}
	return &Format{Code: code, OversLimit: overs}, nil
}

// BallsPerInnings returns the legal-delivery cap for an innings, or 0 for
// an unlimited innings (oversLimit <= 0).
func BallsPerInnings(oversLimit int) int {
	if oversLimit <= 0 {
		return 0
	}
	return oversLimit * 6
}

// InningsClosedByOvers reports whether the overs limit has been reached.
// A zero limit means no cap.
func InningsClosedByOvers(legalBalls, oversLimit int) bool {
	cap := BallsPerInnings(oversLimit)
	return cap > 0 && legalBalls >= cap
}
