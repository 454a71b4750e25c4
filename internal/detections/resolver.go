package detections

import (
	"context"
	"log/slog"
	"strings"

	"github.com/heimdex/detectq/internal/logging"
)

// Locator turns a stored video path into a playable URL, or nil.
type Locator interface {
	Resolve(ctx context.Context, path string) *string
}

// QueryResolver is what the transport layers depend on.
type QueryResolver interface {
	Resolve(ctx context.Context, videoID int64, objectName string) (*Result, error)
}

type Resolver struct {
	repo    Repository
	locator Locator
	logger  *slog.Logger
}

func NewResolver(repo Repository, locator Locator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{repo: repo, locator: locator, logger: logger}
}

// Resolve looks up the video, fetches its detections in the shape selected
// by objectName (filtered when non-blank, grouped otherwise) and resolves
// the video URL once. Store failures abort with no partial result.
func (r *Resolver) Resolve(ctx context.Context, videoID int64, objectName string) (*Result, error) {
	if videoID < 1 {
		return nil, invalidInput("videoId is required for query")
	}

	filter := strings.TrimSpace(objectName)
	logger := logging.WithVideoID(r.logger, videoID)
	logger.Info("querying detections", "object_name", filter)

	res, err := r.fetch(ctx, videoID, filter)
	if err != nil {
		if KindOf(err) == KindQueryFailed {
			logger.Error("detection query failed", "error", err)
		}
		return nil, err
	}

	if r.locator != nil {
		res.VideoURL = r.locator.Resolve(ctx, res.Video.Path)
	}

	logger.Info("detections resolved",
		"mode", res.Mode.String(),
		"timesteps", res.Count(),
		"groups", len(res.Groups),
		"has_video_url", res.VideoURL != nil,
	)
	return res, nil
}

// fetch holds one session for the video lookup and the detection query
// and releases it before returning.
func (r *Resolver) fetch(ctx context.Context, videoID int64, filter string) (*Result, error) {
	sess, err := r.repo.Acquire(ctx)
	if err != nil {
		return nil, queryFailed(err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			r.logger.Warn("failed to release connection", "error", err)
		}
	}()

	video, err := sess.GetVideo(ctx, videoID)
	if err != nil {
		return nil, queryFailed(err)
	}
	if video == nil {
		return nil, videoNotFound(videoID)
	}

	res := &Result{Video: *video}

	if filter != "" {
		events, err := sess.SearchDetections(ctx, videoID, filter)
		if err != nil {
			return nil, queryFailed(err)
		}
		res.Mode = ModeFiltered
		res.Timesteps = NormalizeAll(events)
		return res, nil
	}

	events, err := sess.ListDetections(ctx, videoID)
	if err != nil {
		return nil, queryFailed(err)
	}
	res.Mode = ModeGrouped
	res.Groups = GroupEvents(events)
	return res, nil
}
