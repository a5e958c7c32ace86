package core

import (
	"strings"
	"time"
)

// DateLayout is the only accepted textual form of a movement date.
const DateLayout = "02/01/2006"

// ParseDate parses a DD/MM/YYYY date. The day and month must be two digits
// and the result must be a real calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// DateKey rearranges a DD/MM/YYYY date into YYYYMMDD, which sorts
// chronologically as text.
func DateKey(date string) (string, error) {
	if _, err := ParseDate(date); err != nil {
		return "", err
	}
	parts := strings.Split(date, "/")
	return parts[2] + parts[1] + parts[0], nil
}
