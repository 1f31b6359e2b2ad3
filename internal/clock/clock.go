// Package clock abstracts the wall clock so that lock expiry and
// availability windows can be tested deterministically.  Production code
// uses System; tests substitute a fixed or stepping implementation.
package clock

import "time"

// Clock supplies the current time.  All consumers treat the returned
// value as UTC.
type Clock interface {
	Now() time.Time
}

// System reads the real wall clock in UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time { return time.Now().UTC() }
