// util/clock.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"time"
)

// PeriodClock answers the question "has at least this much time passed
// since the last trigger?". It is the one rate-limiting primitive used
// throughout: the idle-pass gate, the team-code cadence, and the
// condition monitors all carry one. Callers supply the current time so
// that the clock works equally for wall-clock and sample-clock use.
type PeriodClock struct {
	last time.Time
}

// Update records a trigger at the given time.
func (c *PeriodClock) Update(now time.Time) {
	c.last = now
}

// Reset forgets the last trigger; the next Check/CheckUpdate fires
// unconditionally.
func (c *PeriodClock) Reset() {
	c.last = time.Time{}
}

// Elapsed returns the time since the last trigger; it returns a very
// large duration if the clock has never been triggered.
func (c *PeriodClock) Elapsed(now time.Time) time.Duration {
	if c.last.IsZero() {
		return time.Duration(1<<63 - 1)
	}
	return now.Sub(c.last)
}

// Check reports whether at least d has passed since the last trigger,
// without updating the clock.
func (c *PeriodClock) Check(now time.Time, d time.Duration) bool {
	return c.Elapsed(now) >= d
}

// CheckUpdate checks whether at least d has passed since the last
// trigger and, if so, re-arms the clock. Exactly one caller of a shared
// clock sees true per period.
func (c *PeriodClock) CheckUpdate(now time.Time, d time.Duration) bool {
	if !c.Check(now, d) {
		return false
	}
	c.last = now
	return true
}

// GapClock tracks successive timestamps from an external clock that may
// jump backward (GPS re-sync). Update returns the signed delta since the
// last timestamp: positive for forward progress (clamped to maxGap),
// negative when the clock has warped backward, and zero when time has
// not advanced. The first call after a Reset reports minPeriod so that
// the caller treats it as forward progress.
type GapClock struct {
	last  time.Time
	armed bool
}

func (c *GapClock) Reset() {
	c.armed = false
}

func (c *GapClock) Update(t time.Time, minPeriod, maxGap time.Duration) time.Duration {
	if !c.armed {
		c.last, c.armed = t, true
		return minPeriod
	}

	dt := t.Sub(c.last)
	if dt == 0 {
		return 0
	}

	// Move the reference forward (or, on a warp, back) to the new
	// timestamp either way; a warp otherwise poisons every later delta.
	c.last = t

	if dt > maxGap {
		return maxGap
	}
	return dt
}
