package httpapi

import (
	"math"
	"sync/atomic"
	"time"

	"horse.fit/camtranslate/internal/globaltime"
)

// Session holds the counters shared by every connection of one server process.
type Session struct {
	startedAt time.Time
	requests  atomic.Int64
}

func NewSession() *Session {
	return &Session{startedAt: globaltime.Now()}
}

// Inc counts one inbound request and returns the new total.
func (s *Session) Inc() int64 {
	return s.requests.Add(1)
}

func (s *Session) Requests() int64 {
	return s.requests.Load()
}

func (s *Session) Uptime() time.Duration {
	return globaltime.Since(s.startedAt)
}

// UptimeSeconds is the uptime rounded to whole seconds.
func (s *Session) UptimeSeconds() int64 {
	return int64(math.Round(s.Uptime().Seconds()))
}
