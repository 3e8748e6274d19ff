package platform

import (
	"time"

	"lowpower-go/types"
)

// MonoClock counts milliseconds since construction, truncated to the 32-bit
// tick counter.
type MonoClock struct {
	start time.Time
}

func NewMonoClock() *MonoClock { return &MonoClock{start: time.Now()} }

func (c *MonoClock) Now() types.Ticks {
	return types.Ticks(uint64(time.Since(c.start) / time.Millisecond))
}
