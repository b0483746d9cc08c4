// computer/sample.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"time"

	"github.com/soarium/glidecomp/geo"
)

// TargetID identifies a nearby-traffic target (a FLARM-style radio id).
type TargetID string

// Traffic is one target from a nearby-traffic report.
type Traffic struct {
	ID            TargetID
	Location      geo.Point
	LocationValid bool
	Altitude      float32
	AltitudeValid bool
	Track         float32 // degrees
	Speed         float32 // m/s
	ClimbRate     float32 // m/s
}

// TrafficList is the set of targets current as of one sample.
type TrafficList struct {
	List []Traffic
}

// FindTraffic returns the target with the given id, or nil.
func (tl *TrafficList) FindTraffic(id TargetID) *Traffic {
	for i := range tl.List {
		if tl.List[i].ID == id {
			return &tl.List[i]
		}
	}
	return nil
}

// Sample is one positioning/sensor update as delivered by the
// acquisition layer. It is immutable once handed to the computer; every
// optional field carries its own validity flag.
type Sample struct {
	// Time is the GPS timestamp; Clock is the receiver's own sample
	// clock, which drives freshness markers and is immune to GPS time
	// warps.
	Time      time.Time
	TimeValid bool
	// DateValid reports whether the date portion of Time is plausible;
	// some receivers deliver time-of-day long before a first date fix.
	DateValid bool
	Clock     time.Time

	Location      geo.Point
	LocationValid bool

	GPSAltitude       float32
	GPSAltitudeValid  bool
	BaroAltitude      float32
	BaroAltitudeValid bool

	GroundSpeed      float32 // m/s
	GroundSpeedValid bool
	Track            float32 // degrees
	TrackValid       bool

	// TotalEnergyVario is a (pressure-derived) vario reading, when the
	// connected instrument provides one.
	TotalEnergyVario      float32 // m/s
	TotalEnergyVarioValid bool

	Temperature      float32 // degrees C
	TemperatureValid bool
	Humidity         float32 // percent
	HumidityValid    bool

	Traffic TrafficList
}

// NavAltitude returns the altitude to navigate by: baro when the
// instrument provides one, GPS otherwise.
func (s *Sample) NavAltitude() (float32, bool) {
	if s.BaroAltitudeValid {
		return s.BaroAltitude, true
	}
	if s.GPSAltitudeValid {
		return s.GPSAltitude, true
	}
	return 0, false
}
