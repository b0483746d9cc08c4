// nmea/nmea.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nmea parses the NMEA-0183 sentences the replay driver feeds
// the computer: GGA and RMC position fixes, PGRMZ pressure altitude, and
// FLARM PFLAA traffic reports. One Sample is emitted per RMC sentence,
// carrying everything accumulated since the previous one.
package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soarium/glidecomp/computer"
	"github.com/soarium/glidecomp/geo"
	"github.com/soarium/glidecomp/traffic"
)

const knotsToMetersPerSecond = 0.514444

// Parser assembles samples from a sentence stream. It is not safe for
// concurrent use; the acquisition layer owns it.
type Parser struct {
	traffic *traffic.Store

	// accumulated since the last RMC
	gpsAltitude       float32
	gpsAltitudeValid  bool
	baroAltitude      float32
	baroAltitudeValid bool

	lastLocation      geo.Point
	lastLocationValid bool
	lastDate          time.Time
	haveDate          bool

	// now supplies the receiver clock attached to each sample.
	now func() time.Time
}

func NewParser(trafficStore *traffic.Store) *Parser {
	if trafficStore == nil {
		trafficStore = traffic.NewStore(0)
	}
	return &Parser{
		traffic: trafficStore,
		now:     time.Now,
	}
}

// Feed consumes one sentence. It returns a completed Sample when the
// sentence closes a fix cycle (RMC), nil otherwise. Malformed sentences
// return an error and are otherwise ignored; the stream keeps going.
func (p *Parser) Feed(line string) (*computer.Sample, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	fields, err := checkFrame(line)
	if err != nil {
		return nil, err
	}

	switch fields[0] {
	case "$GPGGA", "$GNGGA":
		return nil, p.parseGGA(fields)
	case "$GPRMC", "$GNRMC":
		return p.parseRMC(fields)
	case "$PGRMZ":
		return nil, p.parsePGRMZ(fields)
	case "$PFLAA":
		return nil, p.parsePFLAA(fields)
	default:
		// Unknown sentences are common and fine.
		return nil, nil
	}
}

// checkFrame validates the $...*hh framing and checksum and splits the
// sentence into comma fields.
func checkFrame(line string) ([]string, error) {
	if len(line) < 4 || line[0] != '$' {
		return nil, fmt.Errorf("not an NMEA sentence: %q", line)
	}

	star := strings.LastIndexByte(line, '*')
	if star < 0 || star+3 != len(line) {
		return nil, fmt.Errorf("missing checksum: %q", line)
	}

	want, err := strconv.ParseUint(line[star+1:], 16, 8)
	if err != nil {
		return nil, fmt.Errorf("bad checksum field: %q", line)
	}

	var sum byte
	for i := 1; i < star; i++ {
		sum ^= line[i]
	}
	if sum != byte(want) {
		return nil, fmt.Errorf("checksum mismatch: %q", line)
	}

	return strings.Split(line[:star], ","), nil
}

func (p *Parser) parseGGA(f []string) error {
	if len(f) < 10 {
		return fmt.Errorf("short GGA")
	}

	if loc, ok := parseLatLon(f[2], f[3], f[4], f[5]); ok {
		p.lastLocation, p.lastLocationValid = loc, true
	}

	if alt, err := strconv.ParseFloat(f[9], 32); err == nil && f[9] != "" {
		p.gpsAltitude, p.gpsAltitudeValid = float32(alt), true
	}
	return nil
}

func (p *Parser) parseRMC(f []string) (*computer.Sample, error) {
	if len(f) < 10 {
		return nil, fmt.Errorf("short RMC")
	}

	s := &computer.Sample{Clock: p.now()}

	active := f[2] == "A"

	if loc, ok := parseLatLon(f[3], f[4], f[5], f[6]); ok && active {
		s.Location, s.LocationValid = loc, true
		p.lastLocation, p.lastLocationValid = loc, true
	}

	if t, dateValid, ok := parseTimeDate(f[1], f[9]); ok {
		if !dateValid && p.haveDate {
			// Some receivers omit the date field after the first fix;
			// carry the last seen date rather than reporting none.
			d := p.lastDate
			t = time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(),
				t.Second(), t.Nanosecond(), time.UTC)
			dateValid = true
		}
		s.Time, s.TimeValid, s.DateValid = t, true, dateValid
		if dateValid {
			p.lastDate = t.Truncate(24 * time.Hour)
			p.haveDate = true
		}
	}

	if active && f[7] != "" {
		if kn, err := strconv.ParseFloat(f[7], 32); err == nil {
			s.GroundSpeed, s.GroundSpeedValid = float32(kn)*knotsToMetersPerSecond, true
		}
	}
	if active && f[8] != "" {
		if track, err := strconv.ParseFloat(f[8], 32); err == nil {
			s.Track, s.TrackValid = float32(track), true
		}
	}

	s.GPSAltitude, s.GPSAltitudeValid = p.gpsAltitude, p.gpsAltitudeValid
	s.BaroAltitude, s.BaroAltitudeValid = p.baroAltitude, p.baroAltitudeValid
	s.Traffic = p.traffic.Snapshot()

	// Altitude does not carry over to the next cycle; a silent
	// instrument must read as missing data, not frozen data.
	p.gpsAltitudeValid = false
	p.baroAltitudeValid = false

	return s, nil
}

// parsePGRMZ handles the Garmin/FLARM pressure altitude sentence:
// $PGRMZ,value,F|M,fixtype.
func (p *Parser) parsePGRMZ(f []string) error {
	if len(f) < 3 {
		return fmt.Errorf("short PGRMZ")
	}
	v, err := strconv.ParseFloat(f[1], 32)
	if err != nil {
		return fmt.Errorf("bad PGRMZ altitude %q", f[1])
	}
	switch f[2] {
	case "F", "f":
		p.baroAltitude = float32(v) * 0.3048
	case "M", "m":
		p.baroAltitude = float32(v)
	default:
		return fmt.Errorf("bad PGRMZ unit %q", f[2])
	}
	p.baroAltitudeValid = true
	return nil
}

// parsePFLAA handles a FLARM traffic report. Positions are relative to
// our own location, so a report with no own fix yet is dropped.
func (p *Parser) parsePFLAA(f []string) error {
	if len(f) < 12 {
		return fmt.Errorf("short PFLAA")
	}
	if !p.lastLocationValid {
		return nil
	}

	relNorth, errN := strconv.ParseFloat(f[2], 32)
	relEast, errE := strconv.ParseFloat(f[3], 32)
	relVert, errV := strconv.ParseFloat(f[4], 32)
	if errN != nil || errE != nil || errV != nil {
		return fmt.Errorf("bad PFLAA offsets")
	}

	id := computer.TargetID(strings.ToUpper(f[6]))
	if id == "" {
		return fmt.Errorf("empty PFLAA id")
	}

	t := computer.Traffic{ID: id}

	loc := geo.Offset(p.lastLocation, 0, float32(relNorth))
	loc = geo.Offset(loc, 90, float32(relEast))
	t.Location, t.LocationValid = loc, true

	if p.gpsAltitudeValid {
		t.Altitude, t.AltitudeValid = p.gpsAltitude+float32(relVert), true
	}
	if track, err := strconv.ParseFloat(f[7], 32); err == nil && f[7] != "" {
		t.Track = float32(track)
	}
	if speed, err := strconv.ParseFloat(f[9], 32); err == nil && f[9] != "" {
		t.Speed = float32(speed)
	}
	if climb, err := strconv.ParseFloat(f[10], 32); err == nil && f[10] != "" {
		t.ClimbRate = float32(climb)
	}

	p.traffic.Upsert(t)
	return nil
}

// parseLatLon converts the ddmm.mmmm/dddmm.mmmm representation.
func parseLatLon(lat, ns, lon, ew string) (geo.Point, bool) {
	latDeg, ok1 := parseCoordinate(lat, 2)
	lonDeg, ok2 := parseCoordinate(lon, 3)
	if !ok1 || !ok2 {
		return geo.Point{}, false
	}
	if ns == "S" {
		latDeg = -latDeg
	} else if ns != "N" {
		return geo.Point{}, false
	}
	if ew == "W" {
		lonDeg = -lonDeg
	} else if ew != "E" {
		return geo.Point{}, false
	}
	return geo.MakePoint(latDeg, lonDeg), true
}

func parseCoordinate(s string, degDigits int) (float32, bool) {
	if len(s) < degDigits+2 {
		return 0, false
	}
	deg, err1 := strconv.Atoi(s[:degDigits])
	minutes, err2 := strconv.ParseFloat(s[degDigits:], 64)
	if err1 != nil || err2 != nil || minutes >= 60 {
		return 0, false
	}
	return float32(float64(deg) + minutes/60), true
}

// parseTimeDate combines the hhmmss.sss and ddmmyy fields. A missing or
// implausible date yields a time on a placeholder date with dateValid
// false; receivers commonly deliver time-of-day before their first full
// fix.
func parseTimeDate(timeField, dateField string) (t time.Time, dateValid, ok bool) {
	if len(timeField) < 6 {
		return time.Time{}, false, false
	}
	hh, err1 := strconv.Atoi(timeField[0:2])
	mm, err2 := strconv.Atoi(timeField[2:4])
	ss, err3 := strconv.ParseFloat(timeField[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil || hh > 23 || mm > 59 || ss >= 61 {
		return time.Time{}, false, false
	}
	nanos := int(ss * 1e9)

	year, month, day := 2000, 1, 1
	if len(dateField) == 6 {
		dd, errD := strconv.Atoi(dateField[0:2])
		mo, errM := strconv.Atoi(dateField[2:4])
		yy, errY := strconv.Atoi(dateField[4:6])
		if errD == nil && errM == nil && errY == nil &&
			dd >= 1 && dd <= 31 && mo >= 1 && mo <= 12 {
			year, month, day = 2000+yy, mo, dd
			dateValid = true
		}
	}

	t = time.Date(year, time.Month(month), day, hh, mm, 0, nanos, time.UTC)
	return t, dateValid, true
}
