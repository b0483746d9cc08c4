// waypoint/waypoint.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package waypoint loads and serves the waypoint database the team
// tracker and task computer resolve ids against.
package waypoint

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/soarium/glidecomp/geo"
)

// Waypoint is one named location.
type Waypoint struct {
	ID        int
	Name      string
	Location  geo.Point
	Elevation float32 // meters
}

// Store is an immutable in-memory waypoint database.
type Store struct {
	byID map[int]Waypoint
}

func NewStore(wps []Waypoint) *Store {
	s := &Store{byID: make(map[int]Waypoint, len(wps))}
	for _, wp := range wps {
		s.byID[wp.ID] = wp
	}
	return s
}

// LookupID resolves a waypoint id to its location.
func (s *Store) LookupID(id int) (geo.Point, bool) {
	wp, ok := s.byID[id]
	return wp.Location, ok
}

// Lookup returns the full waypoint record.
func (s *Store) Lookup(id int) (Waypoint, bool) {
	wp, ok := s.byID[id]
	return wp, ok
}

func (s *Store) Len() int {
	return len(s.byID)
}

// Read parses a waypoint file: CSV records of
// id,name,latitude,longitude,elevation. Malformed records are an error;
// a waypoint file is authored once and should be fixed, not silently
// truncated.
func Read(r io.Reader) ([]Waypoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var wps []Waypoint
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) != 5 {
			return nil, fmt.Errorf("line %d: want 5 fields, got %d", line, len(rec))
		}

		id, err := strconv.Atoi(rec[0])
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("line %d: bad waypoint id %q", line, rec[0])
		}
		lat, err := strconv.ParseFloat(rec[2], 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad latitude %q", line, rec[2])
		}
		lon, err := strconv.ParseFloat(rec[3], 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad longitude %q", line, rec[3])
		}
		elev, err := strconv.ParseFloat(rec[4], 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad elevation %q", line, rec[4])
		}

		wps = append(wps, Waypoint{
			ID:        id,
			Name:      rec[1],
			Location:  geo.MakePoint(float32(lat), float32(lon)),
			Elevation: float32(elev),
		})
	}
	return wps, nil
}

// Load reads a waypoint file from disk.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wps, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewStore(wps), nil
}
