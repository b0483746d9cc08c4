// geo/geo.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	"fmt"
	gomath "math"

	"github.com/soarium/glidecomp/math"
)

const NMPerLatitude = 60

// MetersPerDegreeLatitude is the (spherical-earth) north-south distance
// covered by one degree of latitude.
const MetersPerDegreeLatitude = 60 * 1852

// Point stores a lat-long location with the longitude in the first
// component and latitude in the second; this orders the two as (x, y),
// which is handy when they are treated as a regular 2D point.
type Point [2]float32

func MakePoint(latitude, longitude float32) Point {
	return Point{longitude, latitude}
}

func (p Point) Longitude() float32 {
	return p[0]
}

func (p Point) Latitude() float32 {
	return p[1]
}

func (p Point) IsZero() bool {
	return p[0] == 0 && p[1] == 0
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude(), p.Longitude())
}

// Vector is a bearing and distance between two locations; the bearing is
// in degrees and the distance in meters.
type Vector struct {
	Bearing  float32
	Distance float32
}

// SpeedVector gives a direction in degrees and a speed in meters per
// second; it is used for the wind estimate, among other things.
type SpeedVector struct {
	Direction float32
	Speed     float32
}

// Distance returns the great-circle distance in meters between two
// lat-long points.
func Distance(a Point, b Point) float32 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	const R = 6371000 // metres
	rad := func(d float64) float64 { return float64(d) / 180 * gomath.Pi }
	lat1, lon1 := rad(float64(a[1])), rad(float64(a[0]))
	lat2, lon2 := rad(float64(b[1])), rad(float64(b[0]))
	dlat, dlon := lat2-lat1, lon2-lon1

	x := math.Sqr(gomath.Sin(dlat/2)) + gomath.Cos(lat1)*gomath.Cos(lat2)*math.Sqr(gomath.Sin(dlon/2))
	c := 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
	return float32(R * c)
}

// Bearing returns the heading in degrees from |from| toward |to|,
// assuming a locally flat earth.
func Bearing(from Point, to Point) float32 {
	v := Point{to[0] - from[0], to[1] - from[1]}

	// Note that atan2() normally measures w.r.t. the +x axis and angles
	// are positive for counter-clockwise. We want to measure w.r.t. +y and
	// to have positive angles be clockwise. Happily, swapping the order of
	// values passed to atan2()--passing (x,y), gives what we want.
	angle := math.Degrees(math.Atan2(v[0]*metersPerDegreeLongitude(from), v[1]*MetersPerDegreeLatitude))
	return math.NormalizeHeading(angle)
}

// DistanceBearing returns the Vector from |from| to |to|.
func DistanceBearing(from Point, to Point) Vector {
	return Vector{
		Bearing:  Bearing(from, to),
		Distance: Distance(from, to),
	}
}

// Offset returns the point at the given distance in meters along the
// vector with the given bearing from p. It assumes a (locally) flat earth.
func Offset(p Point, bearing float32, distance float32) Point {
	h := math.Radians(bearing)
	dx := distance * math.Sin(h)
	dy := distance * math.Cos(h)
	return Point{
		p[0] + dx/metersPerDegreeLongitude(p),
		p[1] + dy/MetersPerDegreeLatitude,
	}
}

func metersPerDegreeLongitude(p Point) float32 {
	// Longitude degrees shrink with the cosine of the latitude; clamp so
	// that the poles don't divide by zero.
	scale := math.Cos(math.Radians(p.Latitude()))
	return MetersPerDegreeLatitude * math.Clamp(scale, 0.01, 1)
}
