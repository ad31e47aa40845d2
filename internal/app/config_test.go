package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LB_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	cfg := LoadConfig(logger.NewNop())
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SyncInterval != 900*time.Millisecond {
		t.Fatalf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.APIMaxRetries != 2 {
		t.Fatalf("APIMaxRetries = %d", cfg.APIMaxRetries)
	}
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
api_base_url: https://api.example.com/v1
api_timeout: 5s
api_max_retries: 0
sync_interval: 2s
redis_addr: localhost:6379
`)
	t.Setenv("LB_CONFIG_FILE", path)
	cfg := LoadConfig(logger.NewNop())
	if cfg.APIBaseURL != "https://api.example.com/v1" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 5*time.Second {
		t.Fatalf("APITimeout = %v", cfg.APITimeout)
	}
	if cfg.APIMaxRetries != 0 {
		t.Fatalf("APIMaxRetries = %d", cfg.APIMaxRetries)
	}
	if cfg.SyncInterval != 2*time.Second {
		t.Fatalf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr = %q", cfg.RedisAddr)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "api_base_url: https://file.example.com\n")
	t.Setenv("LB_CONFIG_FILE", path)
	t.Setenv("LB_API_BASE_URL", "https://env.example.com")
	t.Setenv("LB_SYNC_INTERVAL", "250ms")
	cfg := LoadConfig(logger.NewNop())
	if cfg.APIBaseURL != "https://env.example.com" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SyncInterval != 250*time.Millisecond {
		t.Fatalf("SyncInterval = %v", cfg.SyncInterval)
	}
}

func TestLoadConfigBadDurationKeepsDefault(t *testing.T) {
	path := writeConfigFile(t, "api_timeout: soon\n")
	t.Setenv("LB_CONFIG_FILE", path)
	cfg := LoadConfig(logger.NewNop())
	if cfg.APITimeout != 30*time.Second {
		t.Fatalf("APITimeout = %v", cfg.APITimeout)
	}
}
