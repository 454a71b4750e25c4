// Package export writes query results as edit decision lists so editors
// can cut straight to the moments an object appears.
package export

import (
	"math"
	"slices"

	"github.com/heimdex/detectq/internal/detections"
)

// DefaultMarkerMs is the length given to detections without an end time.
const DefaultMarkerMs = 1000

// Marker is one detection interval on the source timeline.
type Marker struct {
	Object  string
	StartMs int
	EndMs   int
	Frame   *int64
}

// MarkersFromResult flattens res into markers ordered by start time. Grouped
// results keep object-name order among equal starts.
func MarkersFromResult(res *detections.Result, minMs int) []Marker {
	if minMs <= 0 {
		minMs = DefaultMarkerMs
	}

	var markers []Marker
	add := func(object string, ts detections.Timestep) {
		start := secondsToMs(ts.Timestamp)
		end := start + minMs
		if ts.EndTimestamp != nil {
			if e := secondsToMs(*ts.EndTimestamp); e > start {
				end = e
			}
		}
		markers = append(markers, Marker{Object: object, StartMs: start, EndMs: end, Frame: ts.Frame})
	}

	if res.Mode == detections.ModeFiltered {
		for _, ts := range res.Timesteps {
			add("", ts)
		}
		return markers
	}

	for _, g := range res.Groups {
		for _, ts := range g.Timesteps {
			add(g.Object, ts)
		}
	}
	slices.SortStableFunc(markers, func(a, b Marker) int {
		return a.StartMs - b.StartMs
	})
	return markers
}

func secondsToMs(s float64) int {
	if s < 0 || math.IsNaN(s) {
		return 0
	}
	return int(math.Round(s * 1000))
}
