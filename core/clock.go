package core

import "time"

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the current UTC time.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
