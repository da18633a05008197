package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
log:
  level: debug
  format: json
redis:
  addr: localhost:6379
  ttl: 5m
sqlite:
  path: /tmp/contest.db
contest:
  history_limit: 10
  top_size: 5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected server/log config: %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.SQLite.Path != "/tmp/contest.db" {
		t.Fatalf("unexpected storage config: %+v", cfg)
	}
	if cfg.Contest.HistoryLimit != 10 || cfg.Contest.TopSize != 5 || cfg.Contest.RecognitionSize != 0 {
		t.Fatalf("unexpected contest config: %+v", cfg.Contest)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"soon", time.Minute},
	}
	for _, tc := range cases {
		if got := TTLDuration(tc.raw, time.Minute); got != tc.want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
