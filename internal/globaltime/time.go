// Package globaltime is the clock behind artifact names, record names and server uptime.
// Tests freeze it with SetMockTime.
package globaltime

import (
	"sync/atomic"
	"time"
)

var frozen atomic.Pointer[time.Time]

// Now is the wall clock unless a mock time is set.
func Now() time.Time {
	if t := frozen.Load(); t != nil {
		return *t
	}
	return time.Now()
}

func UTC() time.Time {
	return Now().UTC()
}

// Since mirrors time.Since against the mockable clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

// SetMockTime freezes Now at t until ResetTime.
func SetMockTime(t time.Time) {
	frozen.Store(&t)
}

func ResetTime() {
	frozen.Store(nil)
}
