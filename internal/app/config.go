package app

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/learnbridge/internal/platform/envutil"
	"github.com/yungbote/learnbridge/internal/platform/logger"
)

type Config struct {
	LogMode       string
	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int
	StorePath     string
	RedisAddr     string
	BusChannel    string
	SyncInterval  time.Duration
	Environment   string
	Version       string
}

// fileConfig is the yaml shape; durations are strings ("30s", "900ms").
type fileConfig struct {
	LogMode       string `yaml:"log_mode"`
	APIBaseURL    string `yaml:"api_base_url"`
	APITimeout    string `yaml:"api_timeout"`
	APIMaxRetries *int   `yaml:"api_max_retries"`
	StorePath     string `yaml:"store_path"`
	RedisAddr     string `yaml:"redis_addr"`
	BusChannel    string `yaml:"bus_channel"`
	SyncInterval  string `yaml:"sync_interval"`
	Environment   string `yaml:"environment"`
	Version       string `yaml:"version"`
}

func defaultConfig() Config {
	return Config{
		LogMode:       "development",
		APIBaseURL:    "http://localhost:8000/api",
		APITimeout:    30 * time.Second,
		APIMaxRetries: 2,
		StorePath:     defaultStorePath(),
		BusChannel:    "learnbridge",
		SyncInterval:  900 * time.Millisecond,
		Environment:   "development",
		Version:       "dev",
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "learnbridge.db"
	}
	return filepath.Join(home, ".learnbridge", "learnbridge.db")
}

// LoadConfig layers defaults, an optional yaml file, then environment
// variables. The file path comes from LB_CONFIG_FILE and falls back to
// ~/.learnbridge/config.yaml; a missing file is not an error.
func LoadConfig(log *logger.Logger) Config {
	cfg := defaultConfig()

	path := envutil.String("LB_CONFIG_FILE", "")
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			path = filepath.Join(home, ".learnbridge", "config.yaml")
		}
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var fc fileConfig
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				log.Warn("config file unreadable, using defaults", "path", path, "error", err)
			} else {
				applyFileConfig(&cfg, fc, log)
				log.Info("config file loaded", "path", path)
			}
		case !os.IsNotExist(err):
			log.Warn("config file open failed", "path", path, "error", err)
		}
	}

	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.APIBaseURL = envutil.String("LB_API_BASE_URL", cfg.APIBaseURL)
	cfg.APITimeout = envutil.Duration("LB_API_TIMEOUT", cfg.APITimeout)
	cfg.APIMaxRetries = envutil.Int("LB_API_MAX_RETRIES", cfg.APIMaxRetries)
	cfg.StorePath = envutil.String("LB_STORE_PATH", cfg.StorePath)
	cfg.RedisAddr = envutil.String("LB_REDIS_ADDR", cfg.RedisAddr)
	cfg.BusChannel = envutil.String("LB_BUS_CHANNEL", cfg.BusChannel)
	cfg.SyncInterval = envutil.Duration("LB_SYNC_INTERVAL", cfg.SyncInterval)
	cfg.Environment = envutil.String("LB_ENVIRONMENT", cfg.Environment)
	cfg.Version = envutil.String("LB_VERSION", cfg.Version)
	return cfg
}

func applyFileConfig(cfg *Config, fc fileConfig, log *logger.Logger) {
	if fc.LogMode != "" {
		cfg.LogMode = fc.LogMode
	}
	if fc.APIBaseURL != "" {
		cfg.APIBaseURL = fc.APIBaseURL
	}
	if fc.APITimeout != "" {
		if d, err := time.ParseDuration(fc.APITimeout); err == nil {
			cfg.APITimeout = d
		} else {
			log.Warn("config api_timeout invalid, keeping default", "value", fc.APITimeout)
		}
	}
	if fc.APIMaxRetries != nil {
		cfg.APIMaxRetries = *fc.APIMaxRetries
	}
	if fc.StorePath != "" {
		cfg.StorePath = fc.StorePath
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.BusChannel != "" {
		cfg.BusChannel = fc.BusChannel
	}
	if fc.SyncInterval != "" {
		if d, err := time.ParseDuration(fc.SyncInterval); err == nil {
			cfg.SyncInterval = d
		} else {
			log.Warn("config sync_interval invalid, keeping default", "value", fc.SyncInterval)
		}
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.Version != "" {
		cfg.Version = fc.Version
	}
}
