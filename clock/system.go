// A thin wrapper over the system clock which can be replaced with a fixed one in tests.
package clock

import "time"

type Clock interface {
	CurrentTimeSec() int64
	Now() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return &systemClock{}
}

func (sc *systemClock) CurrentTimeSec() int64 {
	return time.Now().Unix()
}

func (sc *systemClock) Now() time.Time {
	return time.Now()
}

type fixedClock struct {
	t time.Time
}

// NewFixedClock returns a clock that always reads t.
func NewFixedClock(t time.Time) Clock {
	return &fixedClock{t: t}
}

func (fc *fixedClock) CurrentTimeSec() int64 {
	return fc.t.Unix()
}

func (fc *fixedClock) Now() time.Time {
	return fc.t
}
