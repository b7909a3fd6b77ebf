package config

import (
	"testing"
	"time"
)

// allEnvVars lists every env var that must be cleared between tests.
var allEnvVars = []string{
	"TASKGRAPH_DATABASE_URL", "TASKGRAPH_HTTP_ADDR", "TASKGRAPH_NATS_URL",
	"TASKGRAPH_AUTH_TOKEN", "TASKGRAPH_WARN_FANOUT", "TASKGRAPH_WARN_CHAIN",
	"TASKGRAPH_SYNC_INTERVAL", "TASKGRAPH_SYNC_S3_BUCKET",
	"TASKGRAPH_SYNC_S3_ENDPOINT", "TASKGRAPH_SYNC_S3_REGION",
	"TASKGRAPH_SYNC_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
		wantFanout   int
		wantChain    int
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "Defaults",
			env:          map[string]string{"TASKGRAPH_DATABASE_URL": "postgres://localhost/taskgraph"},
			wantHTTPAddr: ":8080",
			wantFanout:   10,
			wantChain:    5,
		},
		{
			name: "CustomValues",
			env: map[string]string{
				"TASKGRAPH_DATABASE_URL": "postgres://db:5432/taskgraph",
				"TASKGRAPH_HTTP_ADDR":    ":3000",
				"TASKGRAPH_NATS_URL":     "nats://localhost:4222",
				"TASKGRAPH_WARN_FANOUT":  "20",
				"TASKGRAPH_WARN_CHAIN":   "8",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
			wantFanout:   20,
			wantChain:    8,
		},
		{
			name: "BadFanout",
			env: map[string]string{
				"TASKGRAPH_DATABASE_URL": "postgres://localhost/taskgraph",
				"TASKGRAPH_WARN_FANOUT":  "lots",
			},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["TASKGRAPH_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["TASKGRAPH_DATABASE_URL"])
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.WarnFanout != tc.wantFanout {
				t.Errorf("WarnFanout = %d, want %d", cfg.WarnFanout, tc.wantFanout)
			}
			if cfg.WarnChain != tc.wantChain {
				t.Errorf("WarnChain = %d, want %d", cfg.WarnChain, tc.wantChain)
			}
		})
	}
}

func TestLoad_SyncInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TASKGRAPH_DATABASE_URL", "postgres://localhost/taskgraph")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval = %v, want 3m", cfg.SyncInterval)
	}

	t.Setenv("TASKGRAPH_SYNC_INTERVAL", "90s")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 90*time.Second {
		t.Errorf("SyncInterval = %v, want 90s", cfg.SyncInterval)
	}

	t.Setenv("TASKGRAPH_SYNC_INTERVAL", "often")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad interval, got nil")
	}
}
