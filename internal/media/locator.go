// Package media resolves stored video paths into URLs a player can fetch.
package media

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/heimdex/detectq/internal/logging"
)

const (
	DefaultBucket     = "tfmc-youtube-data"
	DefaultRegion     = "us-east-1"
	DefaultSignExpiry = 3600 * time.Second
)

// Config is fixed at construction; each Locator owns its copy.
type Config struct {
	CDNBaseURL  string
	Bucket      string
	Region      string
	StorageHost string
	SignExpiry  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.StorageHost == "" {
		c.StorageHost = "s3." + c.Region + ".amazonaws.com"
	}
	if c.SignExpiry <= 0 {
		c.SignExpiry = DefaultSignExpiry
	}
	c.CDNBaseURL = strings.TrimRight(c.CDNBaseURL, "/")
	return c
}

// Signer produces time-limited GET URLs for stored objects.
type Signer interface {
	PresignGetObject(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// ObjectRef addresses one object in a bucket.
type ObjectRef struct {
	Bucket string
	Key    string
}

// Strategy is one way of turning an object reference into a URL. ok is
// false when the strategy does not apply or failed.
type Strategy interface {
	Name() string
	Locate(ctx context.Context, ref ObjectRef) (url string, ok bool)
}

type Locator struct {
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
}

// NewLocator builds the chain CDN, signed URL, direct URL. A nil signer
// skips the signed step.
func NewLocator(cfg Config, signer Signer, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = logging.Discard()
	}
	cfg = cfg.withDefaults()
	logger = logging.WithComponent(logger, "media")

	var strategies []Strategy
	if cfg.CDNBaseURL != "" {
		strategies = append(strategies, CDNStrategy{BaseURL: cfg.CDNBaseURL})
	}
	if signer != nil {
		strategies = append(strategies, SignedStrategy{Signer: signer, Expiry: cfg.SignExpiry, Logger: logger})
	}
	strategies = append(strategies, DirectStrategy{Host: cfg.StorageHost})

	return &Locator{cfg: cfg, strategies: strategies, logger: logger}
}

// Resolve never fails: it returns nil only for an empty path.
func (l *Locator) Resolve(ctx context.Context, path string) *string {
	if path == "" {
		return nil
	}
	if IsFullURL(path) {
		return &path
	}

	ref := l.Ref(path)
	for _, s := range l.strategies {
		if u, ok := s.Locate(ctx, ref); ok {
			l.logger.Debug("video url resolved", "strategy", s.Name(), "key", ref.Key)
			return &u
		}
	}
	return nil
}

// Ref maps a stored path to the object it names. s3://bucket/key paths carry
// their own bucket; other paths are keys in the configured bucket with one
// leading slash removed.
func (l *Locator) Ref(path string) ObjectRef {
	if rest, ok := strings.CutPrefix(path, "s3://"); ok {
		if bucket, key, found := strings.Cut(rest, "/"); found && bucket != "" {
			return ObjectRef{Bucket: bucket, Key: key}
		}
	}
	return ObjectRef{Bucket: l.cfg.Bucket, Key: NormalizeKey(path)}
}

// IsFullURL reports whether path is already an http(s) URL.
func IsFullURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// NormalizeKey strips exactly one leading slash.
func NormalizeKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// CDNStrategy prefixes the key with a content-delivery base URL.
type CDNStrategy struct {
	BaseURL string
}

func (CDNStrategy) Name() string { return "cdn" }

func (s CDNStrategy) Locate(_ context.Context, ref ObjectRef) (string, bool) {
	if s.BaseURL == "" {
		return "", false
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + ref.Key, true
}

// SignedStrategy asks the signer for a presigned URL. Failures are logged
// and reported as not applicable so the chain moves on.
type SignedStrategy struct {
	Signer Signer
	Expiry time.Duration
	Logger *slog.Logger
}

func (SignedStrategy) Name() string { return "signed" }

func (s SignedStrategy) Locate(ctx context.Context, ref ObjectRef) (string, bool) {
	if s.Signer == nil {
		return "", false
	}
	expiry := s.Expiry
	if expiry <= 0 {
		expiry = DefaultSignExpiry
	}

	u, err := s.Signer.PresignGetObject(ctx, ref.Bucket, ref.Key, expiry)
	if err != nil || u == "" {
		if s.Logger != nil {
			s.Logger.Warn("presigned url unavailable, falling back to direct url",
				"bucket", ref.Bucket, "key", ref.Key, "error", err)
		}
		return "", false
	}
	return u, true
}

// DirectStrategy builds the public-style https://bucket.host/key URL. It
// always applies; the object may still be private.
type DirectStrategy struct {
	Host string
}

func (DirectStrategy) Name() string { return "direct" }

func (s DirectStrategy) Locate(_ context.Context, ref ObjectRef) (string, bool) {
	return "https://" + ref.Bucket + "." + s.Host + "/" + ref.Key, true
}
