// computer/trace.go
// Copyright(c) 2025 glidecomp contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package computer

import (
	"time"

	"github.com/soarium/glidecomp/geo"
)

// TraceHistoryLength bounds the number of retained trace points; the
// display layers that consume the trace only ever show the recent past.
const TraceHistoryLength = 60

// TracePoint is one sampled point of the trace history.
type TracePoint struct {
	Time        time.Time
	Location    geo.Point
	NavAltitude float32
	Vario       float32
}

// TraceHistory is a bounded, time-ascending buffer of recent trace
// points. Appending past the bound drops the oldest point; the only
// other mutation is a full clear, which the computer performs when the
// GPS clock warps backward.
type TraceHistory struct {
	Points []TracePoint
}

func (th *TraceHistory) Append(p TracePoint) {
	if len(th.Points) >= TraceHistoryLength {
		n := copy(th.Points, th.Points[1:])
		th.Points = th.Points[:n]
	}
	th.Points = append(th.Points, p)
}

func (th *TraceHistory) Clear() {
	th.Points = th.Points[:0]
}

func (th *TraceHistory) Len() int {
	return len(th.Points)
}
