// Package config provides configuration management for detectq.
// Configuration is loaded from an optional TOML file and environment
// variables, in that order, on top of sensible defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort          = 3001
	DefaultLogLevel      = "info"
	DefaultBucket        = "tfmc-youtube-data"
	DefaultRegion        = "us-east-1"
	DefaultMaxOpenConns  = 10
	DefaultSignExpiry    = 3600 * time.Second
	DefaultAllowedOrigin = "*"

	// Environment variable names
	EnvConfigFile      = "CONFIG_FILE"
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvDatabaseURL     = "AWS_RDS_CONNECTION_STRING"
	EnvDatabaseURLAlt  = "DATABASE_URL"
	EnvForceSSL        = "DB_FORCE_SSL"
	EnvMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	EnvBucket          = "S3_BUCKET_NAME"
	EnvRegion          = "S3_REGION"
	EnvStorageHost     = "S3_HOST"
	EnvStorageEndpoint = "S3_ENDPOINT"
	EnvCDNBaseURL      = "CLOUDFRONT_URL"
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAllowedOrigins  = "CORS_ALLOWED_ORIGINS"
)

// ErrNoDatabase is returned by callers that need a store when none is configured.
var ErrNoDatabase = errors.New(EnvDatabaseURL + " not configured")

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DatabaseURL() string
	ForceSSL() bool
	MaxOpenConns() int
	Bucket() string
	Region() string
	StorageHost() string
	StorageEndpoint() string
	CDNBaseURL() string
	AccessKeyID() string
	SecretAccessKey() string
	SignExpiry() time.Duration
	AllowedOrigins() []string
}

// EnvConfig holds configuration resolved from defaults, file and environment.
type EnvConfig struct {
	port           int
	logLevel       string
	databaseURL    string
	forceSSL       bool
	maxOpenConns   int
	bucket         string
	region         string
	storageHost    string
	endpoint       string
	cdnBaseURL     string
	accessKeyID    string
	secretKey      string
	allowedOrigins []string
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
	Database struct {
		URL          string `toml:"url"`
		ForceSSL     bool   `toml:"force_ssl"`
		MaxOpenConns int    `toml:"max_open_conns"`
	} `toml:"database"`
	Storage struct {
		Bucket          string `toml:"bucket"`
		Region          string `toml:"region"`
		Host            string `toml:"host"`
		Endpoint        string `toml:"endpoint"`
		CDNBaseURL      string `toml:"cdn_base_url"`
		AccessKeyID     string `toml:"access_key_id"`
		SecretAccessKey string `toml:"secret_access_key"`
	} `toml:"storage"`
	CORS struct {
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"cors"`
}

// New loads configuration using the file named by CONFIG_FILE, if any.
func New() (*EnvConfig, error) {
	return Load(os.Getenv(EnvConfigFile))
}

// Load creates an EnvConfig from defaults, the TOML file at path (skipped
// when path is empty), and environment variable overrides.
func Load(path string) (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		maxOpenConns:   DefaultMaxOpenConns,
		bucket:         DefaultBucket,
		region:         DefaultRegion,
		allowedOrigins: []string{DefaultAllowedOrigin},
	}

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: port must be between 1 and 65535", cfg.port)
	}
	if cfg.maxOpenConns < 1 {
		return nil, fmt.Errorf("invalid max open connections %d: must be positive", cfg.maxOpenConns)
	}

	return cfg, nil
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.port = fc.Port
	}
	setString(&c.logLevel, fc.LogLevel)
	setString(&c.databaseURL, fc.Database.URL)
	c.forceSSL = fc.Database.ForceSSL
	if fc.Database.MaxOpenConns != 0 {
		c.maxOpenConns = fc.Database.MaxOpenConns
	}
	setString(&c.bucket, fc.Storage.Bucket)
	setString(&c.region, fc.Storage.Region)
	setString(&c.storageHost, fc.Storage.Host)
	setString(&c.endpoint, fc.Storage.Endpoint)
	setString(&c.cdnBaseURL, fc.Storage.CDNBaseURL)
	setString(&c.accessKeyID, fc.Storage.AccessKeyID)
	setString(&c.secretKey, fc.Storage.SecretAccessKey)
	if len(fc.CORS.AllowedOrigins) > 0 {
		c.allowedOrigins = fc.CORS.AllowedOrigins
	}
	return nil
}

func (c *EnvConfig) applyEnv() error {
	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	setString(&c.logLevel, os.Getenv(EnvLogLevel))

	if u := os.Getenv(EnvDatabaseURL); u != "" {
		c.databaseURL = u
	} else {
		setString(&c.databaseURL, os.Getenv(EnvDatabaseURLAlt))
	}

	if v := os.Getenv(EnvForceSSL); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvForceSSL, err)
		}
		c.forceSSL = b
	}

	if v := os.Getenv(EnvMaxOpenConns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxOpenConns, err)
		}
		c.maxOpenConns = n
	}

	setString(&c.bucket, os.Getenv(EnvBucket))
	setString(&c.region, os.Getenv(EnvRegion))
	setString(&c.storageHost, os.Getenv(EnvStorageHost))
	setString(&c.endpoint, os.Getenv(EnvStorageEndpoint))
	setString(&c.cdnBaseURL, os.Getenv(EnvCDNBaseURL))
	setString(&c.accessKeyID, os.Getenv(EnvAccessKeyID))
	setString(&c.secretKey, os.Getenv(EnvSecretAccessKey))

	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.allowedOrigins = origins
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DatabaseURL returns the store DSN. Postgres URLs select the Postgres
// driver, anything else is treated as a SQLite file path.
func (c *EnvConfig) DatabaseURL() string {
	return c.databaseURL
}

func (c *EnvConfig) ForceSSL() bool {
	return c.forceSSL
}

func (c *EnvConfig) MaxOpenConns() int {
	return c.maxOpenConns
}

// Bucket returns the object-storage bucket holding the videos
func (c *EnvConfig) Bucket() string {
	return c.bucket
}

func (c *EnvConfig) Region() string {
	return c.region
}

// StorageHost returns the host used for direct object URLs,
// s3.<region>.amazonaws.com unless overridden.
func (c *EnvConfig) StorageHost() string {
	if c.storageHost != "" {
		return c.storageHost
	}
	return "s3." + c.region + ".amazonaws.com"
}

// StorageEndpoint returns a custom S3 API endpoint, empty for AWS.
func (c *EnvConfig) StorageEndpoint() string {
	return c.endpoint
}

// CDNBaseURL returns the content-delivery base URL, empty when not configured
func (c *EnvConfig) CDNBaseURL() string {
	return c.cdnBaseURL
}

func (c *EnvConfig) AccessKeyID() string {
	return c.accessKeyID
}

func (c *EnvConfig) SecretAccessKey() string {
	return c.secretKey
}

// SignExpiry is the validity window of presigned video URLs.
func (c *EnvConfig) SignExpiry() time.Duration {
	return DefaultSignExpiry
}

func (c *EnvConfig) AllowedOrigins() []string {
	return c.allowedOrigins
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
