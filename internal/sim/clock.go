package sim

import "time"

// Clock is a monotonic millisecond clock anchored at construction.
type Clock struct {
	start time.Time
}

// NewClock returns a clock counting from now.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Millis returns milliseconds since the clock was created.
func (c *Clock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}
