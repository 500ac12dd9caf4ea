package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/gophshare/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   main protocol address (":6666")
//	-n string   notification address (":6667")
//	-g string   gRPC admin address (":50051")
//	-m string   metrics HTTP address (":9090")
//	-x int      max capacity, bytes
//	-i int      min chunk size, bytes
//	-j int      max chunk size, bytes
//	-k int      download chunk size, bytes
//	-q int      notification queue size per subscriber
//	-t dur      shutdown timeout ("10s")
//	-d string   PostgreSQL DSN
//	-s string   storage backend: local or s3
//	-r string   data dir for the local backend
//	-u/-p/-b/-l/-e  S3 user, password, bucket, region, base endpoint
//
// Flags not declared here are ignored, so -c/-config can share os.Args.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ProtocolAddr, "a", config.ProtocolAddr, "protocol address")
	fs.StringVar(&config.NotifyAddr, "n", config.NotifyAddr, "notification address")
	fs.StringVar(&config.AdminAddrGRPC, "g", config.AdminAddrGRPC, "gRPC admin address")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.Int64Var(&config.MaxCapacity, "x", config.MaxCapacity, "max in-flight upload bytes")
	fs.IntVar(&config.MinChunkSize, "i", config.MinChunkSize, "min upload chunk size")
	fs.IntVar(&config.MaxChunkSize, "j", config.MaxChunkSize, "max upload chunk size")
	fs.IntVar(&config.DownloadChunkSize, "k", config.DownloadChunkSize, "download chunk size")
	fs.IntVar(&config.NotifyQueueSize, "q", config.NotifyQueueSize, "notification queue size")
	fs.DurationVar(&config.ShutdownTimeout, "t", config.ShutdownTimeout, "shutdown timeout")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (local, s3)")
	fs.StringVar(&config.DataDir, "r", config.DataDir, "data directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "l", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := flagx.Parse(fs, args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
