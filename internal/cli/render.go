package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/heimdex/detectq/internal/db"
	"github.com/heimdex/detectq/internal/detections"
)

const (
	colorBorder = lipgloss.Color("#5C4F4B")
	colorTitle  = lipgloss.Color("#D33061")
	colorObject = lipgloss.Color("#3097C6")
	colorDim    = lipgloss.Color("#AEA47A")
	colorOK     = lipgloss.Color("#A6A75D")
	colorBad    = lipgloss.Color("#AC3835")
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	objectStyle = lipgloss.NewStyle().Bold(true).Foreground(colorObject)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	badStyle    = lipgloss.NewStyle().Foreground(colorBad)
	labelStyle  = lipgloss.NewStyle().Width(14).Foreground(colorDim)
)

// FormatTime formats seconds as H:MM:SS.cc.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	cs := int64(math.Round(seconds * 100))
	hours := cs / 360000
	mins := (cs / 6000) % 60
	secs := cs % 6000
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, mins, secs/100, secs%100)
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderHeader(res *detections.Result) string {
	duration := dimStyle.Render("unknown")
	if res.Video.Duration != nil {
		duration = FormatTime(*res.Video.Duration)
	}
	url := badStyle.Render("no playable url")
	if res.VideoURL != nil {
		url = *res.VideoURL
	}

	lines := []string{
		titleStyle.Render(res.Video.Name),
		field("duration", duration),
		field("url", url),
		field("mode", fmt.Sprintf("%s, %d detections", res.Mode, res.Count())),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderTimestep(ts detections.Timestep) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(FormatTime(ts.Timestamp))
	if ts.EndTimestamp != nil {
		b.WriteString(" - ")
		b.WriteString(FormatTime(*ts.EndTimestamp))
	}
	if ts.Frame != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  frame %d", *ts.Frame)))
	}
	return b.String()
}

// RenderResult writes a human-readable view of one query result.
func RenderResult(w io.Writer, res *detections.Result) {
	fmt.Fprintln(w, renderHeader(res))

	if res.Count() == 0 {
		fmt.Fprintln(w, dimStyle.Render("no detections"))
		return
	}

	if res.Mode == detections.ModeFiltered {
		for _, ts := range res.Timesteps {
			fmt.Fprintln(w, renderTimestep(ts))
		}
		return
	}

	for _, g := range res.Groups {
		fmt.Fprintln(w, objectStyle.Render(g.Object)+dimStyle.Render(fmt.Sprintf(" (%d)", len(g.Timesteps))))
		for _, ts := range g.Timesteps {
			fmt.Fprintln(w, renderTimestep(ts))
		}
	}
}

// RenderProbe writes the connectivity report.
func RenderProbe(w io.Writer, p *db.ProbeResult) {
	table := okStyle.Render("present")
	if !p.ObjectsTableExists {
		table = badStyle.Render("missing")
	}

	lines := []string{
		okStyle.Render("Connection test successful"),
		field("server", p.ServerVersion),
		field("database", p.DatabaseName),
		field("user", p.CurrentUser),
		field("server time", p.ServerTime),
		field("objects", table),
		field("checked at", p.Timestamp),
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}
