package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophshare/internal/flagx"
	"github.com/dmitrijs2005/gophshare/internal/timex"
)

// JsonConfig is the on-disk form of Config. ShutdownTimeout uses
// timex.Duration so it may be written as "10s" or as nanoseconds.
type JsonConfig struct {
	ProtocolAddr      string         `json:"protocol_addr"`
	NotifyAddr        string         `json:"notify_addr"`
	AdminAddrGRPC     string         `json:"admin_addr_grpc"`
	MetricsAddr       string         `json:"metrics_addr"`
	MaxCapacity       int64          `json:"max_capacity"`
	MinChunkSize      int            `json:"min_chunk_size"`
	MaxChunkSize      int            `json:"max_chunk_size"`
	DownloadChunkSize int            `json:"download_chunk_size"`
	NotifyQueueSize   int            `json:"notify_queue_size"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	DatabaseDSN       string         `json:"database_dsn"`
	StorageBackend    string         `json:"storage_backend"`
	DataDir           string         `json:"data_dir"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		ProtocolAddr:      c.ProtocolAddr,
		NotifyAddr:        c.NotifyAddr,
		AdminAddrGRPC:     c.AdminAddrGRPC,
		MetricsAddr:       c.MetricsAddr,
		MaxCapacity:       c.MaxCapacity,
		MinChunkSize:      c.MinChunkSize,
		MaxChunkSize:      c.MaxChunkSize,
		DownloadChunkSize: c.DownloadChunkSize,
		NotifyQueueSize:   c.NotifyQueueSize,
		ShutdownTimeout:   timex.Duration{Duration: c.ShutdownTimeout},
		DatabaseDSN:       c.DatabaseDSN,
		StorageBackend:    c.StorageBackend,
		DataDir:           c.DataDir,
		S3RootUser:        c.S3RootUser,
		S3RootPassword:    c.S3RootPassword,
		S3Bucket:          c.S3Bucket,
		S3Region:          c.S3Region,
		S3BaseEndpoint:    c.S3BaseEndpoint,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.ProtocolAddr = j.ProtocolAddr
	c.NotifyAddr = j.NotifyAddr
	c.AdminAddrGRPC = j.AdminAddrGRPC
	c.MetricsAddr = j.MetricsAddr
	c.MaxCapacity = j.MaxCapacity
	c.MinChunkSize = j.MinChunkSize
	c.MaxChunkSize = j.MaxChunkSize
	c.DownloadChunkSize = j.DownloadChunkSize
	c.NotifyQueueSize = j.NotifyQueueSize
	c.ShutdownTimeout = j.ShutdownTimeout.Duration
	c.DatabaseDSN = j.DatabaseDSN
	c.StorageBackend = j.StorageBackend
	c.DataDir = j.DataDir
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
}

// parseJson overlays the JSON file named by -c or -config onto config.
// Keys missing from the file keep their current values.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	c.apply(config)
	return nil
}
