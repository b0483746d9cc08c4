// computer/teamcode.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
)

// determineTeamCodeRefLocation resolves the configured reference
// waypoint to a location, caching the result (including a failed lookup)
// until the configured id changes. Resolving every cycle would hammer
// the waypoint store for a value that almost never changes.
func (c *Computer) determineTeamCodeRefLocation(set *config.TeamCodeSettings) bool {
	if set.ReferenceWaypoint < 0 {
		return false
	}

	if set.ReferenceWaypoint == c.teamCodeRefID {
		return c.teamCodeRefFound
	}

	c.teamCodeRefID = set.ReferenceWaypoint

	if c.co.Waypoints == nil {
		c.teamCodeRefFound = false
		return false
	}
	loc, ok := c.co.Waypoints.LookupID(set.ReferenceWaypoint)
	if !ok {
		c.teamCodeRefFound = false
		return false
	}

	c.teamCodeRefLocation = loc
	c.teamCodeRefFound = true
	return true
}

// calculateOwnTeamCode encodes our own position against the reference
// waypoint. The computation is rate limited to once every 10 seconds of
// wall-clock time, independent of the sample rate.
func (c *Computer) calculateOwnTeamCode(cyc *fixCycle) {
	// No reference waypoint chosen -> nothing to encode
	if !c.determineTeamCodeRefLocation(&cyc.settings.TeamCode) {
		return
	}

	if !cyc.sample.LocationValid {
		return
	}

	if !c.lastTeamCodeUpdate.CheckUpdate(c.now(), teamCodeInterval) {
		return
	}

	v := geo.DistanceBearing(c.teamCodeRefLocation, cyc.sample.Location)
	c.state.Team.OwnTeamCode.Update(v.Bearing, v.Distance)
}

// calculateTeammateBearingRange locates the teammate. Three mutually
// exclusive strategies in priority order: a configured traffic target, a
// manually entered team code, or nothing.
func (c *Computer) calculateTeammateBearingRange(cyc *fixCycle) {
	set := &cyc.settings.TeamCode

	// No reference waypoint chosen -> cancel; teammate fields keep
	// whatever they held before.
	if !c.determineTeamCodeRefLocation(set) {
		return
	}

	team := &c.state.Team

	switch {
	case set.TargetID != "":
		c.computeFlarmTeam(cyc, TargetID(set.TargetID))

	case geo.ParseTeamCode(set.Code).Defined():
		// The live-traffic channel is inactive; don't display a stale code.
		team.FlarmTeammateCode.Clear()
		c.computeTeamCode(cyc, geo.ParseTeamCode(set.Code))

	default:
		team.TeammateAvailable = false
		team.FlarmTeammateCode.Clear()
	}
}

// computeFlarmTeam derives the teammate's position from a live traffic
// target. If the target is missing from this sample's traffic list, only
// the "current" flag clears; the last known location and vector remain
// for display.
func (c *Computer) computeFlarmTeam(cyc *fixCycle, id TargetID) {
	team := &c.state.Team

	traffic := cyc.sample.Traffic.FindTraffic(id)
	if traffic == nil || !traffic.LocationValid {
		team.FlarmTeammateCodeCurrent = false
		return
	}

	team.TeammateLocation = traffic.Location
	team.TeammateVector = geo.DistanceBearing(cyc.sample.Location, traffic.Location)
	team.TeammateAvailable = true

	v := geo.DistanceBearing(c.teamCodeRefLocation, traffic.Location)
	team.FlarmTeammateCode.Update(v.Bearing, v.Distance)
	team.FlarmTeammateCodeCurrent = true
}

// computeTeamCode derives the teammate's position from a manually
// entered code.
func (c *Computer) computeTeamCode(cyc *fixCycle, code geo.TeamCode) {
	team := &c.state.Team

	team.TeammateLocation = code.DecodeLocation(c.teamCodeRefLocation)
	team.TeammateVector = geo.DistanceBearing(cyc.sample.Location, team.TeammateLocation)
	team.TeammateAvailable = true
}
