// computer/computer.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package computer implements the flight-computation orchestrator: the
// fixed-order pipeline that turns the stream of positioning samples into
// the continuously-refreshed DerivedState consumed by display and
// alerting layers.
//
// One driver thread owns the computer: it calls ProcessFix once per
// incoming sample and, when ProcessFix grants it, ProcessIdle for
// best-effort background work. Neither call blocks and there is no
// internal locking; readers use the immutable snapshots returned by
// LatestCalculated.
package computer

import (
	"sync/atomic"
	"time"

	"github.com/brunoga/deep"
	"github.com/google/uuid"

	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/log"
	"github.com/soarium/glidecomp/util"
)

// IdleInterval is the minimum spacing between idle passes; ProcessFix
// grants at most one idle pass per interval regardless of sample rate.
const IdleInterval = 500 * time.Millisecond

// teamCodeInterval is the cadence of own-team-code recomputation,
// measured in wall-clock processing time.
const teamCodeInterval = 10 * time.Second

// Trace sampling parameters: minimum spacing between points and the
// largest gap a single delta may report.
const (
	traceMinPeriod = 500 * time.Millisecond
	traceMaxGap    = 30 * time.Second
)

// AirDataComputer turns raw samples into altitude, flying-state, and
// vertical-air metrics.
type AirDataComputer interface {
	ProcessBasic(s *Sample, st *DerivedState, set *config.Settings)
	FlightTimes(s *Sample, st *DerivedState, set *config.Settings)
	ProcessVertical(s *Sample, st *DerivedState, set *config.Settings)
	ResetFlight(st *DerivedState, full bool)
	ResetStats()
}

// TaskComputer maintains task progress, including the task-finished flag.
type TaskComputer interface {
	ProcessBasicTask(s *Sample, st *DerivedState, set *config.Settings, force bool)
	ProcessMoreTask(s *Sample, st *DerivedState, set *config.Settings)
	ProcessAutoTask(s *Sample, st *DerivedState)
	ProcessIdle(s *Sample, st *DerivedState, set *config.Settings, exhaustive bool)
	StartTask(s *Sample, st *DerivedState)
	ResetFlight(full bool)
}

// StatsComputer accumulates flight statistics across cycles and serves
// the working-height and vario-scale queries derived from them.
type StatsComputer interface {
	ProcessClimbEvents(st *DerivedState)
	DoLogging(s *Sample, st *DerivedState)
	StartTask(s *Sample)
	ResetFlight(full bool)

	// MinWorkingHeight and MaxWorkingHeight return zero until any
	// statistics have been gathered.
	MinWorkingHeight() float32
	MaxWorkingHeight() float32
	VarioScalePositive() float32
	VarioScaleNegative() float32
}

// WarningComputer checks the sample against the airspace database.
type WarningComputer interface {
	Update(s *Sample, st *DerivedState, set *config.Settings)
	Reset()
}

// ConditionMonitors is a set of generic condition monitors; one set runs
// every fix, the other only during idle passes.
type ConditionMonitors interface {
	Update(s *Sample, st *DerivedState, set *config.Settings)
}

// FixLogger persists fixes during idle passes.
type FixLogger interface {
	Run(s *Sample, st *DerivedState)
}

// WaypointStore resolves waypoint ids to locations.
type WaypointStore interface {
	LookupID(id int) (geo.Point, bool)
}

// Collaborators bundles the sub-computers the orchestrator sequences.
// Any of them may be nil, in which case their steps are skipped; missing
// collaborators degrade the corresponding derived fields to
// "unavailable" like any other missing data.
type Collaborators struct {
	AirData      AirDataComputer
	Task         TaskComputer
	Stats        StatsComputer
	Warnings     WarningComputer
	Monitors     ConditionMonitors // per-fix set
	IdleMonitors ConditionMonitors // idle set
	FixLogger    FixLogger
	Waypoints    WaypointStore
}

type Computer struct {
	lg *log.Logger

	co Collaborators

	settings atomic.Pointer[config.Settings]

	// state is the private working copy; published holds the immutable
	// snapshot handed to readers at the end of each pass.
	state     *DerivedState
	published atomic.Pointer[DerivedState]

	// finish is the Finish Snapshot: the state captured when the task
	// was detected complete, restored at landing for post-flight review.
	finish *DerivedState

	// Reference Location Cache for the team tracker; re-resolved only
	// when the configured waypoint id changes.
	teamCodeRefID       int
	teamCodeRefLocation geo.Point
	teamCodeRefFound    bool

	lastTeamCodeUpdate util.PeriodClock
	idleClock          util.PeriodClock
	traceClock         util.GapClock

	retrospective []geo.Point

	// now is the wall clock; overridable for tests.
	now func() time.Time
}

func New(set config.Settings, co Collaborators, lg *log.Logger) *Computer {
	c := &Computer{
		lg:            lg,
		co:            co,
		state:         &DerivedState{},
		teamCodeRefID: -1,
		now:           time.Now,
	}
	c.settings.Store(&set)
	c.idleClock.Update(c.now())
	c.publish()
	return c
}

// SetSettings replaces the settings snapshot used by subsequent cycles.
// It is the one method safe to call from outside the driver thread.
func (c *Computer) SetSettings(set config.Settings) {
	c.settings.Store(&set)
}

// LatestCalculated returns the snapshot published at the end of the most
// recent fix or idle pass. The returned state is never mutated again;
// callers may hold it as long as they like.
func (c *Computer) LatestCalculated() *DerivedState {
	return c.published.Load()
}

func (c *Computer) publish() {
	snap := deep.MustCopy(*c.state)
	c.published.Store(&snap)
}

// fixCycle carries the per-cycle context through the pipeline stages:
// the sample, the settings snapshot, and the values captured before
// collaborators mutate the state they are edge-detected against.
type fixCycle struct {
	sample   *Sample
	force    bool
	settings *config.Settings

	// lastFlying is the flying flag as of the top of the cycle; the flag
	// itself is rewritten by FlightTimes partway through.
	lastFlying bool

	// lastFinished is the task-finished flag captured immediately before
	// the task computer's basic pass.
	lastFinished bool
}

// ProcessFix runs the full per-sample pipeline. It must be called
// exactly once per incoming sample, on the driver thread. The return
// value reports whether enough time has passed since the last idle pass
// for the caller to run ProcessIdle now.
func (c *Computer) ProcessFix(sample *Sample, force bool) bool {
	cyc := &fixCycle{
		sample:     sample,
		force:      force,
		settings:   c.settings.Load(),
		lastFlying: c.state.Flight.Flying,
	}

	for i := range fixStages {
		fixStages[i].run(c, cyc)
	}

	c.publish()

	return c.idleClock.CheckUpdate(c.now(), IdleInterval)
}

// ProcessIdle runs the best-effort background pass. Call it only when
// ProcessFix has returned true; it runs to completion on the driver
// thread. The exhaustive flag requests a deeper task pass when the
// caller knows more time is available (e.g. no samples are arriving).
func (c *Computer) ProcessIdle(sample *Sample, exhaustive bool) {
	set := c.settings.Load()

	if c.co.Stats != nil {
		c.co.Stats.DoLogging(sample, c.state)
	}
	if c.co.FixLogger != nil {
		c.co.FixLogger.Run(sample, c.state)
	}
	if c.co.Task != nil {
		c.co.Task.ProcessIdle(sample, c.state, set, exhaustive)
	}
	if c.co.Warnings != nil {
		c.co.Warnings.Update(sample, c.state, set)
	}
	if c.co.IdleMonitors != nil {
		c.co.IdleMonitors.Update(sample, c.state, set)
	}

	if sample.LocationValid {
		c.updateRetrospective(sample.Location)
	}

	c.publish()
}

// RestoreState seeds the working state from a previously saved
// snapshot, e.g. a checkpoint written by an earlier run. Call it before
// the first ProcessFix; the computer takes its own copy.
func (c *Computer) RestoreState(st *DerivedState) {
	if st == nil {
		return
	}
	snap := deep.MustCopy(*st)
	c.state = &snap
	c.publish()
}

// ResetFlight abandons all accumulated state: this is the only way to do
// so, and it is itself just another synchronous call on the driver
// thread.
func (c *Computer) ResetFlight(full bool) {
	c.state.ResetFlight(full)
	if c.co.AirData != nil {
		c.co.AirData.ResetFlight(c.state, full)
	}
	if c.co.Task != nil {
		c.co.Task.ResetFlight(full)
	}
	if c.co.Stats != nil {
		c.co.Stats.ResetFlight(full)
	}
	if c.co.Warnings != nil {
		c.co.Warnings.Reset()
	}

	c.traceClock.Reset()
	c.finish = nil
	c.retrospective = nil

	c.lg.Info("flight reset", "full", full)
	c.publish()
}

// OnStartTask is the externally-triggered task-start event: task
// statistics reset fully and logging begins for the new task.
func (c *Computer) OnStartTask(sample *Sample) {
	if c.co.Task != nil {
		c.co.Task.StartTask(sample, c.state)
	}
	if c.co.AirData != nil {
		c.co.AirData.ResetStats()
	}
	if c.co.Stats != nil {
		c.co.Stats.StartTask(sample)
	}
	c.lg.Info("task started")
}

// Retrospective returns the sparse summary of locations visited this
// flight, accumulated during idle passes.
func (c *Computer) Retrospective() []geo.Point {
	return c.retrospective
}

const (
	retrospectiveSpacing = 5000 // meters
	retrospectiveLength  = 100
)

func (c *Computer) updateRetrospective(loc geo.Point) {
	if n := len(c.retrospective); n > 0 &&
		geo.Distance(c.retrospective[n-1], loc) < retrospectiveSpacing {
		return
	}
	if len(c.retrospective) >= retrospectiveLength {
		c.retrospective = c.retrospective[1:]
	}
	c.retrospective = append(c.retrospective, loc)
}

// onFinishTask fires on the false-to-true edge of the task-finished
// flag.
func (c *Computer) onFinishTask() {
	c.saveFinish()
	c.lg.Info("task finished", "time", c.state.Task.FinishTime)
}

// takeoffLanding edge-detects the flying flag. lastFlying was captured
// at the top of the cycle; the flag itself has been rewritten by
// FlightTimes by the time this runs.
func (c *Computer) takeoffLanding(lastFlying bool) {
	if c.state.Flight.Flying && !lastFlying {
		c.onTakeoff()
	} else if !c.state.Flight.Flying && lastFlying {
		c.onLanding()
	}
}

func (c *Computer) onTakeoff() {
	// reset stats on takeoff
	if c.co.AirData != nil {
		c.co.AirData.ResetFlight(c.state, false)
	}

	c.state.FlightID = uuid.NewString()

	// save stats in case we never finish
	c.saveFinish()

	c.lg.Info("takeoff",
		"flight_id", c.state.FlightID,
		"time", c.state.Flight.TakeoffTime)
}

func (c *Computer) onLanding() {
	c.lg.Info("landing", "time", c.state.Flight.LandingTime)

	// restore data calculated at finish so the flight can be reviewed
	// as at the finish line, not as affected by post-finish drift
	if c.state.Task.TaskFinished {
		c.restoreFinish()
	}
}

func (c *Computer) saveFinish() {
	snap := deep.MustCopy(*c.state)
	c.finish = &snap
}

func (c *Computer) restoreFinish() {
	if c.finish != nil {
		*c.state = deep.MustCopy(*c.finish)
	}
}
