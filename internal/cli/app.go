package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heimdex/detectq/internal/config"
	"github.com/heimdex/detectq/internal/db"
	"github.com/heimdex/detectq/internal/detections"
	"github.com/heimdex/detectq/internal/logging"
	"github.com/heimdex/detectq/internal/media"
)

// app holds the wired components shared by serve and query.
type app struct {
	db       *db.DB
	resolver *detections.Resolver
	// unsigned locates videos by CDN or direct url for output that
	// outlives a presigned url.
	unsigned *media.Locator
}

func openStore(cfg config.Config, logger *slog.Logger) (*db.DB, error) {
	if cfg.DatabaseURL() == "" {
		return nil, config.ErrNoDatabase
	}

	logger.Info("opening store",
		"dsn", logging.SanitizeDSN(cfg.DatabaseURL()),
		"dialect", db.DialectFor(cfg.DatabaseURL()).String(),
	)

	database, err := db.New(cfg.DatabaseURL(), db.Options{
		MaxOpenConns: cfg.MaxOpenConns(),
		ForceSSL:     cfg.ForceSSL(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, nil
}

func mediaConfig(cfg config.Config) media.Config {
	return media.Config{
		CDNBaseURL:  cfg.CDNBaseURL(),
		Bucket:      cfg.Bucket(),
		Region:      cfg.Region(),
		StorageHost: cfg.StorageHost(),
		SignExpiry:  cfg.SignExpiry(),
	}
}

func newLocator(ctx context.Context, cfg config.Config, logger *slog.Logger) *media.Locator {

	var signer media.Signer
	s3Signer, err := media.NewS3Signer(ctx, media.SignerConfig{
		Region:          cfg.Region(),
		AccessKeyID:     cfg.AccessKeyID(),
		SecretAccessKey: cfg.SecretAccessKey(),
		Endpoint:        cfg.StorageEndpoint(),
	})
	if err != nil {
		logger.Warn("presigned urls unavailable, using direct urls", "error", err)
	} else {
		signer = s3Signer
	}

	if cfg.AccessKeyID() != "" {
		logger.Info("object storage configured",
			"bucket", cfg.Bucket(),
			"region", cfg.Region(),
			"access_key", logging.SanitizeToken(cfg.AccessKeyID()),
			"cdn", cfg.CDNBaseURL() != "",
		)
	}

	return media.NewLocator(mediaConfig(cfg), signer, logger)
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	database, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	resolver := detections.NewResolver(
		detections.NewRepository(database),
		newLocator(ctx, cfg, logger),
		logging.WithComponent(logger, "detections"),
	)

	return &app{
		db:       database,
		resolver: resolver,
		unsigned: media.NewLocator(mediaConfig(cfg), nil, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
