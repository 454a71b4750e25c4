package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heimdex/detectq/internal/api"
	"github.com/heimdex/detectq/internal/detections"
	"github.com/heimdex/detectq/internal/export"
	"github.com/heimdex/detectq/internal/logging"
	"github.com/heimdex/detectq/internal/player"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Show where objects appear in one video",
		Long: `Query the detections of one video. With --object the result is a flat,
time-ordered list of detections whose name contains the text (case
insensitive). Without it detections are grouped per object name.`,
		Example: `  detectq query --video-id 42
  detectq query --video-id 42 --object cup --play`,
		RunE: runQuery,
	}
	cmd.Flags().String("video-id", "", "id of the video to query (required)")
	cmd.Flags().String("object", "", "only show objects whose name contains this text")
	cmd.Flags().Bool("json", false, "print the HTTP response body instead of a table")
	cmd.Flags().Bool("play", false, "open the video in mpv at the first detection")
	cmd.Flags().String("edl", "", "also write the detections as a CMX3600 edit decision list to this file")
	cmd.Flags().Float64("fps", 30, "frame rate used for EDL timecodes")
	cmd.MarkFlagRequired("video-id")
	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	rawID, _ := cmd.Flags().GetString("video-id")
	objectName, _ := cmd.Flags().GetString("object")
	asJSON, _ := cmd.Flags().GetBool("json")
	play, _ := cmd.Flags().GetBool("play")
	edlPath, _ := cmd.Flags().GetString("edl")
	fps, _ := cmd.Flags().GetFloat64("fps")

	videoID, err := detections.ParseVideoID(rawID)
	if err != nil {
		return err
	}

	if edlPath != "" {
		if err := export.ValidateOutputPath(edlPath); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewLoggerTo(os.Stderr, cfg.LogLevel())

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.resolver.Resolve(cmd.Context(), videoID, objectName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(api.ResultToResponse(res)); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		RenderResult(out, res)
	}

	if edlPath != "" {
		mediaPath := res.Video.Path
		if u := a.unsigned.Resolve(cmd.Context(), res.Video.Path); u != nil {
			mediaPath = *u
		}
		if err := writeEDL(edlPath, res, objectName, mediaPath, fps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", edlPath)
	}

	if !play {
		return nil
	}
	if res.VideoURL == nil {
		return errors.New("video has no playable url")
	}

	start, _ := FirstTimestamp(res)
	if _, err := player.Launch(*res.VideoURL, start); err != nil {
		return fmt.Errorf("failed to launch player: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Opening %s at %s\n", res.Video.Name, FormatTime(start))
	return nil
}

// writeEDL writes res to path. mediaPath must stay valid after the run, so
// callers pass a CDN or direct url rather than a presigned one.
func writeEDL(path string, res *detections.Result, objectName, mediaPath string, fps float64) error {
	title := strings.TrimSpace(res.Video.Name + " " + strings.TrimSpace(objectName))

	edl := export.GenerateEDL(export.MarkersFromResult(res, export.DefaultMarkerMs), title, mediaPath, res.Video.Name, fps)
	if err := os.WriteFile(path, []byte(edl), 0644); err != nil {
		return fmt.Errorf("failed to write edl: %w", err)
	}
	return nil
}

// FirstTimestamp is the earliest detection start in res.
func FirstTimestamp(res *detections.Result) (float64, bool) {
	if res.Mode == detections.ModeFiltered {
		if len(res.Timesteps) == 0 {
			return 0, false
		}
		return res.Timesteps[0].Timestamp, true
	}

	found := false
	var first float64
	for _, g := range res.Groups {
		if len(g.Timesteps) == 0 {
			continue
		}
		if ts := g.Timesteps[0].Timestamp; !found || ts < first {
			first, found = ts, true
		}
	}
	return first, found
}
