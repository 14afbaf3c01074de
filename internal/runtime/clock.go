package runtime

import "time"

// Clock abstracts "now" so claim-window boundary behavior (spec section
// 8.3) can be tested precisely instead of racing the wall clock.
type Clock interface {
	Now() int64 // unix epoch seconds
}

// SystemClock is the production Clock, backed by time.Now().
type SystemClock struct{}

func (SystemClock) Now() int64 { return time.Now().Unix() }

// FixedClock is a test Clock pinned to a single instant, advanced
// explicitly between operations to exercise boundary behavior.
type FixedClock struct {
	At int64
}

func (c *FixedClock) Now() int64 { return c.At }

func (c *FixedClock) Advance(d time.Duration) {
	c.At += int64(d.Seconds())
}
