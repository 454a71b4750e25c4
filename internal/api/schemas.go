package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/heimdex/detectq/internal/db"
	"github.com/heimdex/detectq/internal/detections"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

// QueryRequest is the body of POST /api/query-aws-rds.
type QueryRequest struct {
	VideoID    VideoID  `json:"videoId"`
	ObjectName string   `json:"objectName"`
	Test       FlexBool `json:"test"`
}

// VideoID accepts a JSON number or a string and keeps the raw text for
// detections.ParseVideoID.
type VideoID string

func (v *VideoID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = VideoID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("videoId must be a number or string")
	}
	*v = VideoID(integralNumber(n))
	return nil
}

// integralNumber rewrites integer-valued numbers such as 42.0 or 4.2e1 in
// plain integer form. Other numbers keep their text.
func integralNumber(n json.Number) string {
	if _, err := n.Int64(); err == nil {
		return n.String()
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return n.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

// FlexBool is true for the JSON literal true or the string "true". Any
// other value is false.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case bool:
		*f = FlexBool(t)
	case string:
		*f = t == "true"
	default:
		*f = false
	}
	return nil
}

type VideoInfo struct {
	VideoName string   `json:"videoName"`
	Duration  *float64 `json:"duration"`
}

// QueryResponse carries either []detections.Timestep or
// []detections.ObjectTimesteps in Data.
type QueryResponse struct {
	Data      interface{} `json:"data"`
	VideoURL  *string     `json:"videoUrl"`
	VideoInfo VideoInfo   `json:"videoInfo"`
	Error     *string     `json:"error"`
}

type ProbeResponse struct {
	Data    *db.ProbeResult `json:"data"`
	Error   *string         `json:"error"`
	Message string          `json:"message"`
}

type ErrorResponse struct {
	Data  *struct{} `json:"data"`
	Error string    `json:"error"`
	Code  string    `json:"code,omitempty"`
}

func ResultToResponse(res *detections.Result) QueryResponse {
	return QueryResponse{
		Data:     res.Data(),
		VideoURL: res.VideoURL,
		VideoInfo: VideoInfo{
			VideoName: res.Video.Name,
			Duration:  res.Video.Duration,
		},
	}
}
