// computer/state.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"time"

	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/math"
)

// Freshness windows for pull-based expiry of derived values (state.Expire).
const (
	navAltitudeTTL = 5 * time.Second
	varioTTL       = 5 * time.Second
	windTTL        = 10 * time.Minute
	cloudBaseTTL   = 30 * time.Minute
)

// LocalDateTime is local civil time derived from the GPS timestamp and
// the configured UTC offset. The date and the time-of-day validate
// separately: a receiver may deliver a plausible time-of-day long before
// its first date fix, in which case only TimeOfDay is usable.
type LocalDateTime struct {
	DateTime  time.Time
	TimeOfDay time.Duration
	DateValid bool
	TimeValid bool
}

func (l *LocalDateTime) Invalidate() {
	*l = LocalDateTime{}
}

// FlightState tracks whether we are flying and the flight bookkeeping
// around it.
type FlightState struct {
	Flying bool

	TakeoffTime          time.Time
	TakeoffLocation      geo.Point
	TakeoffLocationValid bool
	LandingTime          time.Time

	// FlightTime is the accumulated airborne time of the current flight.
	FlightTime time.Duration
}

// ClimbInfo carries the vertical-air metrics the air-data computer
// derives.
type ClimbInfo struct {
	// GPSVario is the climb rate derived from successive altitude
	// samples; it is the fallback when no total-energy vario is present.
	GPSVario          float32
	GPSVarioAvailable Validity

	// BruttoVario is the best available climb rate for display.
	BruttoVario float32

	// AverageVario is a smoothed BruttoVario.
	AverageVario float32

	Circling bool
	TurnRate float32 // degrees/s
}

// TerrainInfo is derived terrain data, supplied by an external terrain
// source when one is attached.
type TerrainInfo struct {
	TerrainValid     bool
	TerrainAltitude  float32
	TerrainBaseValid bool
	TerrainBase      float32

	AltitudeAGL      float32
	AltitudeAGLValid bool
}

// TerrainBaseFallback returns the terrain base, falling back to the
// terrain altitude when the base is not known.
func (t *TerrainInfo) TerrainBaseFallback() float32 {
	if t.TerrainBaseValid {
		return t.TerrainBase
	}
	return t.TerrainAltitude
}

// TaskStats is the task progress state the task computer maintains.
type TaskStats struct {
	TaskStarted  bool
	TaskFinished bool

	StartTime  time.Time
	FinishTime time.Time

	// ActiveTurnpoint indexes into the configured turnpoint list.
	ActiveTurnpoint int

	DistanceRemaining      float32 // meters
	DistanceRemainingValid bool
}

// CommonStats is the per-cycle derived display state: the working
// altitude band and the vario scale bounds.
type CommonStats struct {
	HeightMinWorking      float32
	HeightMaxWorking      float32
	HeightFractionWorking float32

	VarioScalePositive float32
	VarioScaleNegative float32
}

// TeamInfo is the team-code state: our own code relative to the
// reference waypoint, and everything known about the teammate.
type TeamInfo struct {
	OwnTeamCode geo.TeamCode

	TeammateAvailable bool
	TeammateVector    geo.Vector
	TeammateLocation  geo.Point

	// FlarmTeammateCode is the code computed from a live traffic target;
	// Current clears when the target drops out of the traffic list but
	// the last known code and location are retained.
	FlarmTeammateCode        geo.TeamCode
	FlarmTeammateCodeCurrent bool
}

// DerivedState is the cumulative output of the computation pipeline:
// one logical instance, allocated at start-up, mutated in place every
// cycle, and reset to a baseline on flight reset. It is exclusively
// owned by the thread driving the computer; presentation layers read
// the published snapshot instead (Computer.LatestCalculated).
type DerivedState struct {
	DateTimeLocal LocalDateTime

	NavAltitude          float32
	NavAltitudeAvailable Validity

	Flight  FlightState
	Climb   ClimbInfo
	Terrain TerrainInfo
	Task    TaskStats
	Common  CommonStats
	Team    TeamInfo

	Wind          geo.SpeedVector
	WindAvailable Validity

	CloudBase          float32
	CloudBaseAvailable Validity

	// FuelBurnTimeRemain is the endurance estimate in seconds.
	FuelBurnTimeRemain          float32
	FuelBurnTimeRemainAvailable Validity

	AirspaceWarningCount int

	Trace TraceHistory

	// FlightID is assigned at takeoff and keys the flight log.
	FlightID string
}

// Expire invalidates every derived value whose freshness window has
// elapsed with respect to the sample clock.
func (s *DerivedState) Expire(clock time.Time) {
	s.NavAltitudeAvailable.Expire(clock, navAltitudeTTL)
	s.Climb.GPSVarioAvailable.Expire(clock, varioTTL)
	s.WindAvailable.Expire(clock, windTTL)
	s.CloudBaseAvailable.Expire(clock, cloudBaseTTL)
}

// ResetFlight returns the state to its baseline. A full reset clears
// everything; a partial reset (automatic at takeoff) keeps slowly
// varying environmental estimates, the team configuration results, and
// the trace.
func (s *DerivedState) ResetFlight(full bool) {
	if full {
		*s = DerivedState{}
		return
	}

	s.Flight = FlightState{}
	s.Climb = ClimbInfo{}
	s.Task = TaskStats{}
	s.Common = CommonStats{}
	s.FuelBurnTimeRemain = 0
	s.FuelBurnTimeRemainAvailable.Clear()
	s.FlightID = ""
}

// WorkingFraction returns the normalized position of the given altitude
// within the working band, with the arrival safety margin subtracted
// from the altitude before normalizing.
func (s *DerivedState) WorkingFraction(altitude, safetyHeight float32) float32 {
	span := s.Common.HeightMaxWorking - s.Common.HeightMinWorking
	if span <= 0 {
		return 1
	}
	return math.Clamp((altitude-safetyHeight-s.Common.HeightMinWorking)/span, 0, 1)
}
