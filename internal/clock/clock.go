// Package clock abstracts the wall clock so report timestamps are testable.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant in UTC.
func (f Fixed) Now() time.Time {
	return time.Time(f).UTC()
}
