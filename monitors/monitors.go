// monitors/monitors.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package monitors implements the generic condition monitors: small
// edge- and threshold-triggered checks that surface advisories to the
// pilot. Each monitor carries its own minimum-interval clock so a
// persistent condition nags at a bounded rate.
package monitors

import (
	"fmt"
	"time"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/log"
	"github.com/soarium/glidecomp/util"
)

// Notifier receives advisory messages. The display layer implements it;
// tests use a recording stub.
type Notifier interface {
	Notify(message string)
}

// LogNotifier routes advisories to the structured log.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(message string) {
	n.Logger.Info("advisory", "message", message)
}

type monitor interface {
	// check returns a non-empty advisory when the condition fires.
	check(s *computer.Sample, st *computer.DerivedState, set *config.Settings) string
	interval() time.Duration
}

// Set is a group of monitors sharing a notifier. The orchestrator runs
// one set every fix and another only during idle passes.
type Set struct {
	notifier Notifier
	monitors []monitor
	clocks   []util.PeriodClock
}

// NewFixSet returns the monitors cheap enough to run every sample.
func NewFixSet(notifier Notifier) *Set {
	return newSet(notifier, &sinkingMonitor{}, &fuelMonitor{})
}

// NewIdleSet returns the monitors that are fine with idle cadence.
func NewIdleSet(notifier Notifier) *Set {
	return newSet(notifier, &airspaceMonitor{}, &workingBandMonitor{})
}

func newSet(notifier Notifier, ms ...monitor) *Set {
	return &Set{
		notifier: notifier,
		monitors: ms,
		clocks:   make([]util.PeriodClock, len(ms)),
	}
}

// Update runs every monitor whose interval has elapsed. Monitors only
// read the state; missing data simply means a monitor stays quiet.
func (set *Set) Update(s *computer.Sample, st *computer.DerivedState, cfg *config.Settings) {
	if !s.TimeValid {
		return
	}
	for i, m := range set.monitors {
		if !set.clocks[i].Check(s.Time, m.interval()) {
			continue
		}
		if msg := m.check(s, st, cfg); msg != "" {
			set.clocks[i].Update(s.Time)
			if set.notifier != nil {
				set.notifier.Notify(msg)
			}
		}
	}
}

// sinkingMonitor warns about sustained heavy sink while flying.
type sinkingMonitor struct{}

func (m *sinkingMonitor) interval() time.Duration { return 30 * time.Second }

func (m *sinkingMonitor) check(s *computer.Sample, st *computer.DerivedState, set *config.Settings) string {
	if !st.Flight.Flying || !st.Climb.GPSVarioAvailable.IsValid() {
		return ""
	}
	threshold := -2 * (set.Polar.BestLDSink + 1)
	if st.Climb.AverageVario < threshold {
		return fmt.Sprintf("heavy sink: %.1f m/s", st.Climb.AverageVario)
	}
	return ""
}

// fuelMonitor warns when the endurance estimate drops below reserve.
type fuelMonitor struct{}

func (m *fuelMonitor) interval() time.Duration { return time.Minute }

func (m *fuelMonitor) check(s *computer.Sample, st *computer.DerivedState, set *config.Settings) string {
	if !st.FuelBurnTimeRemainAvailable.IsValid() {
		return ""
	}
	const reserveSeconds = 30 * 60
	if st.FuelBurnTimeRemain < reserveSeconds {
		return fmt.Sprintf("fuel endurance %.0f min", st.FuelBurnTimeRemain/60)
	}
	return ""
}

// airspaceMonitor reports changes in the airspace warning count.
type airspaceMonitor struct {
	lastCount int
}

func (m *airspaceMonitor) interval() time.Duration { return 10 * time.Second }

func (m *airspaceMonitor) check(s *computer.Sample, st *computer.DerivedState, set *config.Settings) string {
	count := st.AirspaceWarningCount
	defer func() { m.lastCount = count }()
	if count > m.lastCount {
		return fmt.Sprintf("airspace warnings: %d", count)
	}
	return ""
}

// workingBandMonitor warns when we sink below the working band.
type workingBandMonitor struct{}

func (m *workingBandMonitor) interval() time.Duration { return time.Minute }

func (m *workingBandMonitor) check(s *computer.Sample, st *computer.DerivedState, set *config.Settings) string {
	if !st.Flight.Flying || !st.NavAltitudeAvailable.IsValid() {
		return ""
	}
	if st.Common.HeightMinWorking > 0 && st.NavAltitude < st.Common.HeightMinWorking {
		return fmt.Sprintf("below working band (%.0f m)", st.Common.HeightMinWorking)
	}
	return ""
}
