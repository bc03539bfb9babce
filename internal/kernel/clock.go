package kernel

import "time"

// Clock supplies wall-clock time for process and variable timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
