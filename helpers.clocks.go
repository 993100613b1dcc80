package main

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

var _ zapcore.Clock = (*Clock)(nil) // logger timestamps follow the app clock.

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// Clock reads the wall time in a fixed location: UTC
// in production and the local timezone otherwise.
type Clock struct {
	tz *time.Location
}

func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// NewTicker is required by zapcore.Clock.
func (ck *Clock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// Uptime formats the whole minutes elapsed since start.
func Uptime(ck Clocker, start time.Time) string {
	return fmt.Sprintf("%.0f mins", ck.Now().Sub(start).Minutes())
}
