package detections

// Video is the metadata row of one analysed video.
type Video struct {
	ID       int64    `json:"video_id"`
	Path     string   `json:"video_path"`
	Name     string   `json:"video_name"`
	Duration *float64 `json:"duration"`
}

// DetectionEvent is one detected object instance as stored.
type DetectionEvent struct {
	ObjectName     string
	StartTimestamp *float64
	EndTimestamp   *float64
	Frame          *int64
}

// Timestep is the normalized view of a detection event.
type Timestep struct {
	Timestamp    float64  `json:"timestamp"`
	EndTimestamp *float64 `json:"endTimestamp"`
	Frame        *int64   `json:"frame"`
}

// ObjectTimesteps groups the timesteps of one object name.
type ObjectTimesteps struct {
	Object    string     `json:"object"`
	Timesteps []Timestep `json:"timesteps"`
}

// Mode selects which shape a Result carries.
type Mode int

const (
	// ModeGrouped: no object filter, detections grouped per object name.
	ModeGrouped Mode = iota
	// ModeFiltered: object filter given, flat list of timesteps.
	ModeFiltered
)

func (m Mode) String() string {
	if m == ModeFiltered {
		return "filtered"
	}
	return "grouped"
}

// Result is the outcome of one query. Exactly one of Timesteps and Groups
// is meaningful, chosen by Mode.
type Result struct {
	Mode      Mode
	Timesteps []Timestep
	Groups    []ObjectTimesteps
	Video     Video
	VideoURL  *string
}

// Data returns the payload for the active mode. Empty results are empty
// slices, never nil.
func (r *Result) Data() interface{} {
	if r.Mode == ModeFiltered {
		if r.Timesteps == nil {
			return []Timestep{}
		}
		return r.Timesteps
	}
	if r.Groups == nil {
		return []ObjectTimesteps{}
	}
	return r.Groups
}

// Count returns the number of timesteps across the result.
func (r *Result) Count() int {
	if r.Mode == ModeFiltered {
		return len(r.Timesteps)
	}
	n := 0
	for _, g := range r.Groups {
		n += len(g.Timesteps)
	}
	return n
}
