// Package config handles configuration for the file-sharing server,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds runtime settings for the server.
//
// Fields:
//   - ProtocolAddr / NotifyAddr: TCP listeners for the main protocol and
//     the notification side-channel.
//   - AdminAddrGRPC / MetricsAddr: gRPC health endpoint and HTTP metrics.
//   - MaxCapacity: total bytes reservable across all active uploads.
//   - MinChunkSize / MaxChunkSize: inclusive bounds of the per-upload chunk size.
//   - DownloadChunkSize: size of the blocks streamed on download.
//   - NotifyQueueSize: pending live notifications per subscriber.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty keeps history in memory.
//   - StorageBackend / DataDir: file store kind and local root directory.
//   - S3*: settings for the S3-compatible store.
type Config struct {
	ProtocolAddr      string
	NotifyAddr        string
	AdminAddrGRPC     string
	MetricsAddr       string
	MaxCapacity       int64
	MinChunkSize      int
	MaxChunkSize      int
	DownloadChunkSize int
	NotifyQueueSize   int
	ShutdownTimeout   time.Duration
	DatabaseDSN       string
	StorageBackend    string
	DataDir           string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ProtocolAddr = ":6666"
	c.NotifyAddr = ":6667"
	c.AdminAddrGRPC = ":50051"
	c.MetricsAddr = ":9090"
	c.MaxCapacity = 10 << 20
	c.MinChunkSize = 50 << 10
	c.MaxChunkSize = 200 << 10
	c.DownloadChunkSize = 200 << 10
	c.NotifyQueueSize = 64
	c.ShutdownTimeout = 10 * time.Second
	c.DatabaseDSN = ""
	c.StorageBackend = BackendLocal
	c.DataDir = "server_files"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "gophshare"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("max capacity must be positive, got %d", c.MaxCapacity))
	}
	if c.MinChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("min chunk size must be positive, got %d", c.MinChunkSize))
	}
	if c.MinChunkSize > c.MaxChunkSize {
		errs = append(errs, fmt.Errorf("min chunk size %d exceeds max chunk size %d", c.MinChunkSize, c.MaxChunkSize))
	}
	if c.DownloadChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("download chunk size must be positive, got %d", c.DownloadChunkSize))
	}
	if c.NotifyQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("notify queue size must be positive, got %d", c.NotifyQueueSize))
	}
	switch c.StorageBackend {
	case BackendLocal, BackendS3:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}

	return errors.Join(errs...)
}

// MaxFrame bounds one wire frame: the largest chunk either side may send
// plus room for the message header.
func (c *Config) MaxFrame() int {
	return max(c.MaxChunkSize, c.DownloadChunkSize) + 64<<10
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
