// computer/validity.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"time"
)

// Validity is the freshness marker carried alongside every optional
// derived value: it records when the value was last updated against the
// sample clock. Readers must check IsValid before using the value;
// sentinel values are never used to signal missing data.
type Validity struct {
	UpdatedAt time.Time
}

func (v *Validity) Update(clock time.Time) {
	v.UpdatedAt = clock
}

func (v *Validity) Clear() {
	v.UpdatedAt = time.Time{}
}

func (v Validity) IsValid() bool {
	return !v.UpdatedAt.IsZero()
}

// Expire clears the marker if the value is older than ttl with respect
// to the given clock. Expiry is pull-based: it happens at the top of
// each processing cycle, not on a timer.
func (v *Validity) Expire(clock time.Time, ttl time.Duration) {
	if v.IsValid() && clock.Sub(v.UpdatedAt) > ttl {
		v.Clear()
	}
}
