// computer/teamcode_test.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"testing"
	"time"

	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/log"
)

type stubWaypoints struct {
	points  map[int]geo.Point
	lookups int
}

func (w *stubWaypoints) LookupID(id int) (geo.Point, bool) {
	w.lookups++
	p, ok := w.points[id]
	return p, ok
}

var teamRef = geo.MakePoint(47, 11)

func newTeamComputer(set config.Settings, wps *stubWaypoints) *Computer {
	return New(set, Collaborators{Waypoints: wps}, log.Discard())
}

func teamSample(loc geo.Point) *Sample {
	return &Sample{
		Time:          testEpoch,
		TimeValid:     true,
		Clock:         testEpoch,
		Location:      loc,
		LocationValid: true,
	}
}

func TestOwnTeamCodeRateLimit(t *testing.T) {
	wps := &stubWaypoints{points: map[int]geo.Point{7: teamRef}}
	set := config.Default()
	set.TeamCode.ReferenceWaypoint = 7

	c := newTeamComputer(set, wps)
	now := testEpoch
	c.now = func() time.Time { return now }

	// First fix computes immediately.
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	first := c.LatestCalculated().Team.OwnTeamCode
	if !first.Defined() {
		t.Fatal("own team code not computed on first fix")
	}

	// Moving far within the 10 s window must not change the code.
	now = now.Add(5 * time.Second)
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 20000)), false)
	if got := c.LatestCalculated().Team.OwnTeamCode; got != first {
		t.Errorf("own team code updated after 5 s: %q -> %q", first.Code, got.Code)
	}

	// At 10 s it recomputes.
	now = now.Add(5 * time.Second)
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 20000)), false)
	updated := c.LatestCalculated().Team.OwnTeamCode
	if updated == first {
		t.Error("own team code not updated after 10 s")
	}
	if got, want := updated.Range(), float32(20000); got < want*0.95 || got > want*1.05 {
		t.Errorf("decoded range %v, want about %v", got, want)
	}
}

func TestOwnTeamCodeNoReference(t *testing.T) {
	c := newTeamComputer(config.Default(), &stubWaypoints{})
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	if c.LatestCalculated().Team.OwnTeamCode.Defined() {
		t.Error("own team code computed without a reference waypoint")
	}
}

func TestTeamCodeReferenceCache(t *testing.T) {
	wps := &stubWaypoints{points: map[int]geo.Point{7: teamRef, 9: geo.MakePoint(48, 12)}}
	set := config.Default()
	set.TeamCode.ReferenceWaypoint = 7

	c := newTeamComputer(set, wps)
	for i := 0; i < 3; i++ {
		c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	}
	if wps.lookups != 1 {
		t.Errorf("%d waypoint lookups for an unchanged reference, want 1", wps.lookups)
	}

	// Changing the configured id re-resolves once.
	set.TeamCode.ReferenceWaypoint = 9
	c.SetSettings(set)
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	if wps.lookups != 2 {
		t.Errorf("%d waypoint lookups after id change, want 2", wps.lookups)
	}

	// A failed lookup is remembered, not retried every cycle.
	set.TeamCode.ReferenceWaypoint = 99
	c.SetSettings(set)
	for i := 0; i < 3; i++ {
		c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	}
	if wps.lookups != 3 {
		t.Errorf("%d waypoint lookups after failed resolution, want 3", wps.lookups)
	}
}

func TestTeammateFromTraffic(t *testing.T) {
	wps := &stubWaypoints{points: map[int]geo.Point{7: teamRef}}
	set := config.Default()
	set.TeamCode.ReferenceWaypoint = 7
	set.TeamCode.TargetID = "DD8421"
	// A manual code is also configured; the live target must win.
	set.TeamCode.Code = "XYZ12"

	c := newTeamComputer(set, wps)

	mateLoc := geo.Offset(teamRef, 45, 8000)
	s := teamSample(geo.Offset(teamRef, 90, 5000))
	s.Traffic.List = []Traffic{{ID: "DD8421", Location: mateLoc, LocationValid: true}}

	c.ProcessFix(s, false)
	team := c.LatestCalculated().Team
	if !team.TeammateAvailable {
		t.Fatal("teammate not available with a live traffic target")
	}
	if !team.FlarmTeammateCodeCurrent {
		t.Error("flarm teammate code not current with a live target")
	}
	if got := geo.Distance(team.TeammateLocation, mateLoc); got > 1 {
		t.Errorf("teammate location off by %v m", got)
	}

	// Target missing from the next sample: the current flag clears, the
	// last known position stays for display.
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)
	team = c.LatestCalculated().Team
	if team.FlarmTeammateCodeCurrent {
		t.Error("flarm teammate code still current with the target gone")
	}
	if !team.TeammateAvailable {
		t.Error("last known teammate discarded with the target gone")
	}
	if got := geo.Distance(team.TeammateLocation, mateLoc); got > 1 {
		t.Error("last known teammate location not retained")
	}
}

func TestTeammateFromManualCode(t *testing.T) {
	wps := &stubWaypoints{points: map[int]geo.Point{7: teamRef}}

	var code geo.TeamCode
	code.Update(45, 8000)

	set := config.Default()
	set.TeamCode.ReferenceWaypoint = 7
	set.TeamCode.Code = code.Code

	c := newTeamComputer(set, wps)
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)

	team := c.LatestCalculated().Team
	if !team.TeammateAvailable {
		t.Fatal("teammate not available with a manual code")
	}
	if team.FlarmTeammateCode.Defined() {
		t.Error("flarm teammate code set with no live target configured")
	}

	// Decoded location: the code quantizes bearing and range, so allow
	// one range step plus a bearing step's worth of arc.
	want := geo.Offset(teamRef, 45, 8000)
	if got := geo.Distance(team.TeammateLocation, want); got > 150 {
		t.Errorf("decoded teammate location off by %v m", got)
	}
}

func TestTeammateUnavailable(t *testing.T) {
	wps := &stubWaypoints{points: map[int]geo.Point{7: teamRef}}
	set := config.Default()
	set.TeamCode.ReferenceWaypoint = 7

	c := newTeamComputer(set, wps)
	c.state.Team.TeammateAvailable = true
	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)

	if c.LatestCalculated().Team.TeammateAvailable {
		t.Error("teammate available with neither target nor code configured")
	}
}

func TestTeammateNoReferenceKeepsState(t *testing.T) {
	set := config.Default()
	set.TeamCode.TargetID = "DD8421"

	c := newTeamComputer(set, &stubWaypoints{})
	c.state.Team.TeammateAvailable = true
	c.state.Team.TeammateLocation = geo.MakePoint(47.5, 11.5)

	c.ProcessFix(teamSample(geo.Offset(teamRef, 90, 5000)), false)

	// No reference waypoint: the tracker cancels and leaves the fields
	// as they were.
	team := c.LatestCalculated().Team
	if !team.TeammateAvailable {
		t.Error("tracker cleared teammate state without a reference waypoint")
	}
}
