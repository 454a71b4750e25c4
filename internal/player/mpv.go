// Package player opens resolved video URLs in mpv.
package player

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
)

const (
	Binary     = "mpv"
	InstallURL = "https://mpv.io/installation/"
)

// DependencyError reports a player binary missing from PATH.
type DependencyError struct {
	Name       string
	InstallURL string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s not found. Install from: %s", e.Name, e.InstallURL)
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Check returns a *DependencyError when mpv is not installed.
func Check() error {
	if _, err := lookPath(Binary); err != nil {
		return &DependencyError{Name: Binary, InstallURL: InstallURL}
	}
	return nil
}

// Args builds the mpv argument list that starts playback of url at start
// seconds. Negative starts are clamped to zero.
func Args(url string, start float64) []string {
	if start < 0 {
		start = 0
	}
	return []string{
		"--start=" + strconv.FormatFloat(start, 'f', -1, 64),
		url,
	}
}

// Launch starts mpv without waiting for it to exit. The returned command
// can be waited on or killed by the caller.
func Launch(url string, start float64) (*exec.Cmd, error) {
	if url == "" {
		return nil, errors.New("no video url to play")
	}
	if err := Check(); err != nil {
		return nil, err
	}

	cmd := exec.Command(Binary, Args(url, start)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", Binary, err)
	}
	return cmd, nil
}
