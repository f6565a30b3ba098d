package validator

import "time"

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// IsCalendarDate reports whether s parses as a real calendar date in
// YYYY-MM-DD form. time.Parse already rejects out-of-range components
// such as 2026-02-30.
func IsCalendarDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
