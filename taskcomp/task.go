// taskcomp/task.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package taskcomp maintains task progress over the configured turnpoint
// sequence: start/finish detection, the remaining distance, and the
// auto-start behavior.
package taskcomp

import (
	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/log"
)

// Computer is the task collaborator. The turnpoint ids in the settings
// resolve through the waypoint store; an unresolvable task degrades to
// "no task" rather than failing.
type Computer struct {
	waypoints computer.WaypointStore
	lg        *log.Logger

	// resolved task, re-resolved when the configured ids change
	resolvedIDs []int
	points      []geo.Point
	resolved    bool
}

func New(waypoints computer.WaypointStore, lg *log.Logger) *Computer {
	return &Computer{waypoints: waypoints, lg: lg}
}

func (c *Computer) resolveTask(set *config.Settings) bool {
	ids := set.Task.Turnpoints
	if len(ids) < 2 {
		return false
	}
	if equalIDs(ids, c.resolvedIDs) {
		return c.resolved
	}

	c.resolvedIDs = append([]int(nil), ids...)
	c.points = c.points[:0]
	c.resolved = false

	if c.waypoints == nil {
		return false
	}
	for _, id := range ids {
		p, ok := c.waypoints.LookupID(id)
		if !ok {
			c.lg.Warn("task turnpoint not found", "id", id)
			return false
		}
		c.points = append(c.points, p)
	}
	c.resolved = true
	return true
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ProcessBasicTask advances task progress from the sample: turnpoint
// transitions, and the task-finished flag the orchestrator edge-detects.
func (c *Computer) ProcessBasicTask(s *computer.Sample, st *computer.DerivedState, set *config.Settings, force bool) {
	if !c.resolveTask(set) || !s.LocationValid {
		return
	}

	task := &st.Task

	if !task.TaskStarted {
		// Start: crossing the start cylinder. Entirely position-driven;
		// OnStartTask is the explicit (pilot-triggered) alternative.
		if geo.Distance(s.Location, c.points[0]) <= set.Task.StartRadius && st.Flight.Flying {
			task.TaskStarted = true
			task.StartTime = s.Time
			task.ActiveTurnpoint = 1
			c.lg.Info("task start detected", "time", s.Time)
		}
		return
	}

	if task.TaskFinished && !force {
		return
	}

	// Advance through intermediate turnpoints.
	for task.ActiveTurnpoint < len(c.points)-1 &&
		geo.Distance(s.Location, c.points[task.ActiveTurnpoint]) <= set.Task.StartRadius {
		task.ActiveTurnpoint++
	}

	// Finish: inside the finish cylinder on the last turnpoint.
	if task.ActiveTurnpoint == len(c.points)-1 &&
		geo.Distance(s.Location, c.points[len(c.points)-1]) <= set.Task.FinishRadius {
		task.TaskFinished = true
		task.FinishTime = s.Time
	}
}

// ProcessMoreTask refreshes the distance-remaining estimate; it runs
// after the working band so glide planning sees current bounds.
func (c *Computer) ProcessMoreTask(s *computer.Sample, st *computer.DerivedState, set *config.Settings) {
	if !c.resolved || !s.LocationValid || !st.Task.TaskStarted || st.Task.TaskFinished {
		return
	}

	tp := st.Task.ActiveTurnpoint
	if tp >= len(c.points) {
		return
	}

	d := geo.Distance(s.Location, c.points[tp])
	for i := tp; i < len(c.points)-1; i++ {
		d += geo.Distance(c.points[i], c.points[i+1])
	}
	st.Task.DistanceRemaining = d
	st.Task.DistanceRemainingValid = true
}

// ProcessAutoTask arms the task when flight begins: a task configured
// but not started by the time we are airborne starts looking for its
// start-cylinder crossing. Nothing to do beyond bookkeeping here; the
// crossing is detected by ProcessBasicTask.
func (c *Computer) ProcessAutoTask(s *computer.Sample, st *computer.DerivedState) {
	if !st.Flight.Flying && st.Task.TaskStarted && !st.Task.TaskFinished {
		// Landed out mid-task: freeze progress where it is.
		st.Task.DistanceRemainingValid = false
	}
}

// ProcessIdle recomputes the slower task products. An exhaustive pass
// re-walks the whole remaining route; the normal pass does nothing
// beyond what the per-fix passes keep current.
func (c *Computer) ProcessIdle(s *computer.Sample, st *computer.DerivedState, set *config.Settings, exhaustive bool) {
	if !exhaustive {
		return
	}
	c.ProcessMoreTask(s, st, set)
}

// StartTask is the externally-triggered task start.
func (c *Computer) StartTask(s *computer.Sample, st *computer.DerivedState) {
	st.Task = computer.TaskStats{
		TaskStarted:     true,
		ActiveTurnpoint: 1,
	}
	if s != nil && s.TimeValid {
		st.Task.StartTime = s.Time
	}
}

func (c *Computer) ResetFlight(full bool) {
	if full {
		c.resolvedIDs = nil
		c.points = nil
		c.resolved = false
	}
}
