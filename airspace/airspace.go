// airspace/airspace.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package airspace implements the warning collaborator: it checks the
// current position against a set of restricted volumes and maintains the
// warning count in the derived state.
package airspace

import (
	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/config"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/log"
)

// Zone is a cylindrical restricted volume.
type Zone struct {
	Name    string
	Center  geo.Point
	Radius  float32 // meters
	Floor   float32 // meters MSL
	Ceiling float32 // meters MSL; 0 means unlimited
}

func (z *Zone) contains(p geo.Point, altitude float32, altitudeValid bool) bool {
	if geo.Distance(z.Center, p) > z.Radius {
		return false
	}
	if !altitudeValid {
		// Without an altitude, horizontal containment is warning enough.
		return true
	}
	if altitude < z.Floor {
		return false
	}
	return z.Ceiling == 0 || altitude <= z.Ceiling
}

// Computer checks samples against the zones.
type Computer struct {
	zones []Zone
	lg    *log.Logger

	inside map[string]bool
}

func New(zones []Zone, lg *log.Logger) *Computer {
	return &Computer{
		zones:  zones,
		lg:     lg,
		inside: make(map[string]bool),
	}
}

// Update refreshes the warning count; it runs during idle passes only.
func (c *Computer) Update(s *computer.Sample, st *computer.DerivedState, set *config.Settings) {
	if !s.LocationValid {
		return
	}

	count := 0
	for i := range c.zones {
		z := &c.zones[i]
		in := z.contains(s.Location, st.NavAltitude, st.NavAltitudeAvailable.IsValid())
		if in {
			count++
		}
		if in && !c.inside[z.Name] {
			c.lg.Warn("airspace entered", "zone", z.Name)
		}
		c.inside[z.Name] = in
	}
	st.AirspaceWarningCount = count
}

func (c *Computer) Reset() {
	clear(c.inside)
}
