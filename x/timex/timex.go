// Package timex holds wraparound-safe arithmetic on the scheduler's
// millisecond tick counter.
package timex

import (
	"time"

	"lowpower-go/types"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Elapsed returns now - since with unsigned wraparound, so a counter
// rollover between the two samples still yields the true distance.
func Elapsed(now, since types.Ticks) types.Ticks { return now - since }

// Due reports whether at least interval ticks have passed since last.
func Due(now, last, interval types.Ticks) bool {
	return Elapsed(now, last) >= interval
}

// Remaining returns how long until last+interval, clamped to zero if the
// instant has already passed.
func Remaining(now, last, interval types.Ticks) types.Ticks {
	e := Elapsed(now, last)
	if e >= interval {
		return 0
	}
	return interval - e
}

// Duration converts ticks to a time.Duration.
func Duration(t types.Ticks) time.Duration { return time.Duration(t) * time.Millisecond }

// FromDuration converts a duration to ticks, saturating at the counter range.
func FromDuration(d time.Duration) types.Ticks {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if ms > time.Duration(^types.Ticks(0)) {
		return ^types.Ticks(0)
	}
	return types.Ticks(ms)
}
