// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // TASKGRAPH_DATABASE_URL (required)
	HTTPAddr    string // TASKGRAPH_HTTP_ADDR (default ":8080")
	NATSURL     string // TASKGRAPH_NATS_URL (optional, empty = no events)
	AuthToken   string // TASKGRAPH_AUTH_TOKEN (optional, empty = auth disabled)

	// Conflict analysis thresholds
	WarnFanout int // TASKGRAPH_WARN_FANOUT (default 10)
	WarnChain  int // TASKGRAPH_WARN_CHAIN (default 5)

	// Sync settings
	SyncInterval   time.Duration // TASKGRAPH_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // TASKGRAPH_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // TASKGRAPH_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // TASKGRAPH_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // TASKGRAPH_SYNC_S3_KEY (default "taskgraph/dependencies.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("TASKGRAPH_DATABASE_URL"),
		HTTPAddr:       envOrDefault("TASKGRAPH_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("TASKGRAPH_NATS_URL"),
		AuthToken:      os.Getenv("TASKGRAPH_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("TASKGRAPH_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("TASKGRAPH_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("TASKGRAPH_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("TASKGRAPH_SYNC_S3_KEY", "taskgraph/dependencies.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TASKGRAPH_DATABASE_URL is required")
	}

	var err error
	if c.WarnFanout, err = envOrDefaultInt("TASKGRAPH_WARN_FANOUT", 10); err != nil {
		return nil, err
	}
	if c.WarnChain, err = envOrDefaultInt("TASKGRAPH_WARN_CHAIN", 5); err != nil {
		return nil, err
	}

	intervalStr := envOrDefault("TASKGRAPH_SYNC_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("TASKGRAPH_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
