package detections

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Normalize turns a stored event into its response view. A missing start
// becomes 0; a missing end or frame stays null.
func Normalize(ev DetectionEvent) Timestep {
	ts := Timestep{}
	if ev.StartTimestamp != nil {
		ts.Timestamp = *ev.StartTimestamp
	}
	if ev.EndTimestamp != nil {
		end := *ev.EndTimestamp
		ts.EndTimestamp = &end
	}
	if ev.Frame != nil {
		frame := *ev.Frame
		ts.Frame = &frame
	}
	return ts
}

// FromTimestep is the inverse view used to re-normalize a timestep.
func FromTimestep(ts Timestep) DetectionEvent {
	start := ts.Timestamp
	return DetectionEvent{
		StartTimestamp: &start,
		EndTimestamp:   ts.EndTimestamp,
		Frame:          ts.Frame,
	}
}

// NormalizeAll normalizes events and orders them by timestamp. Ties keep
// store order.
func NormalizeAll(events []DetectionEvent) []Timestep {
	out := make([]Timestep, 0, len(events))
	for _, ev := range events {
		out = append(out, Normalize(ev))
	}
	slices.SortStableFunc(out, func(a, b Timestep) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

// GroupEvents groups events by exact object name. Groups are ordered by
// name, bytewise, and each group's timesteps by timestamp.
func GroupEvents(events []DetectionEvent) []ObjectTimesteps {
	byName := make(map[string][]DetectionEvent)
	for _, ev := range events {
		byName[ev.ObjectName] = append(byName[ev.ObjectName], ev)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	groups := make([]ObjectTimesteps, 0, len(names))
	for _, name := range names {
		groups = append(groups, ObjectTimesteps{
			Object:    name,
			Timesteps: NormalizeAll(byName[name]),
		})
	}
	return groups
}

// ParseVideoID validates a raw video identifier.
func ParseVideoID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalidInput("videoId is required for query")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidInput("invalid videoId %q: must be an integer", raw)
	}
	if id < 1 {
		return 0, invalidInput("invalid videoId %d: must be positive", id)
	}
	return id, nil
}

// containsFold reports whether name contains the trimmed filter, ignoring
// Unicode case.
func containsFold(name, filter string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(filter)))
}

// containsPattern builds a LIKE pattern matching filter as a literal substring.
func containsPattern(filter string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(filter)) + "%"
}
