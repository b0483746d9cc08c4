// geo/teamcode.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	"strings"

	"github.com/soarium/glidecomp/math"
)

// A TeamCode encodes a bearing and range from a shared reference point
// into five base-36 glyphs: two for the bearing (1296 steps around the
// circle, about 0.28 degrees each) and three for the range in units of
// 100 meters. Two pilots who agree on the reference waypoint can exchange
// codes over the radio instead of raw coordinates.
type TeamCode struct {
	Code string
}

const teamCodeGlyphs = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	teamCodeBearingSteps = 36 * 36 // two glyphs
	teamCodeRangeUnit    = 100     // meters
)

// Update encodes the given bearing (degrees) and range (meters).
func (c *TeamCode) Update(bearing float32, distance float32) {
	b := int(math.NormalizeHeading(bearing) / 360 * teamCodeBearingSteps)
	b = math.Clamp(b, 0, teamCodeBearingSteps-1)

	r := int(distance / teamCodeRangeUnit)
	r = math.Clamp(r, 0, 36*36*36-1)

	var sb strings.Builder
	sb.WriteByte(teamCodeGlyphs[b/36])
	sb.WriteByte(teamCodeGlyphs[b%36])
	sb.WriteByte(teamCodeGlyphs[r/(36*36)])
	sb.WriteByte(teamCodeGlyphs[(r/36)%36])
	sb.WriteByte(teamCodeGlyphs[r%36])
	c.Code = sb.String()
}

func (c *TeamCode) Clear() {
	c.Code = ""
}

func (c TeamCode) Defined() bool {
	return len(c.Code) == 5
}

// Bearing returns the encoded bearing in degrees.
func (c TeamCode) Bearing() float32 {
	b := glyphValue(c.Code[0])*36 + glyphValue(c.Code[1])
	return float32(b) * 360 / teamCodeBearingSteps
}

// Range returns the encoded range in meters.
func (c TeamCode) Range() float32 {
	r := glyphValue(c.Code[2])*36*36 + glyphValue(c.Code[3])*36 + glyphValue(c.Code[4])
	return float32(r * teamCodeRangeUnit)
}

// DecodeLocation returns the absolute location the code describes with
// respect to the given reference point.
func (c TeamCode) DecodeLocation(reference Point) Point {
	return Offset(reference, c.Bearing(), c.Range())
}

// ParseTeamCode validates a manually-entered code; it returns an
// undefined TeamCode if the string isn't five valid glyphs.
func ParseTeamCode(s string) TeamCode {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 5 {
		return TeamCode{}
	}
	for i := 0; i < len(s); i++ {
		if glyphValue(s[i]) < 0 {
			return TeamCode{}
		}
	}
	return TeamCode{Code: s}
}

func glyphValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'A' && ch <= 'Z':
		return int(ch-'A') + 10
	default:
		return -1
	}
}
