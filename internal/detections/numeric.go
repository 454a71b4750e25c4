package detections

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullFloat scans numeric columns that may arrive as floats, integers or
// text (Postgres NUMERIC through database/sql is text).
// NaN and infinities are treated as absent.
type nullFloat struct {
	Value *float64
}

func (n *nullFloat) Scan(src interface{}) error {
	n.Value = nil
	switch v := src.(type) {
	case nil:
		return nil
	case float64:
		n.set(v)
	case float32:
		n.set(float64(v))
	case int64:
		n.set(float64(v))
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into a float", src)
	}
	return nil
}

func (n *nullFloat) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	n.set(f)
	return nil
}

func (n *nullFloat) set(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	n.Value = &f
}

// nullInt scans integer columns the same way. Fractional values are truncated.
type nullInt struct {
	Value *int64
}

func (n *nullInt) Scan(src interface{}) error {
	n.Value = nil
	switch v := src.(type) {
	case nil:
		return nil
	case int64:
		n.Value = &v
	case float64:
		n.setFloat(v)
	case float32:
		n.setFloat(float64(v))
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into an integer", src)
	}
	return nil
}

func (n *nullInt) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		n.Value = &i
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer value %q: %w", s, err)
	}
	n.setFloat(f)
	return nil
}

func (n *nullInt) setFloat(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	i := int64(math.Trunc(f))
	n.Value = &i
}
