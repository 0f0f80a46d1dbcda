package clock

import "time"

// Clock abstracts time for the services so transition timestamps and
// completion times are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the wall clock, in UTC.
func System() Clock {
	return systemClock{}
}

// Fixed returns a clock frozen at t. Test helper.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}
