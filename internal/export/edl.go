package export

import (
	"fmt"
	"math"
	"strings"
)

// GenerateEDL renders markers as a CMX3600 list against one source clip.
// The record side lays the markers end to end.
func GenerateEDL(markers []Marker, title, mediaPath, clipName string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffsetMs := 0
	for i, m := range markers {
		srcIn := msToTimecode(m.StartMs, fps)
		srcOut := msToTimecode(m.EndMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		durationMs := m.EndMs - m.StartMs
		recOut := msToTimecode(recordOffsetMs+durationMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", SanitizeName(clipName, 0)),
		)
		if m.Object != "" {
			lines = append(lines, fmt.Sprintf("* OBJECT:  %s", SanitizeName(m.Object, 0)))
		}
		if m.Frame != nil {
			lines = append(lines, fmt.Sprintf("* FRAME:  %d", *m.Frame))
		}
		if mediaPath != "" {
			lines = append(lines, fmt.Sprintf("* MEDIA PATH:  %s", mediaPath))
		}

		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
