package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/observability"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *store.Store
	Bus      *bus.Bus
	API      *api.Client
	Services Services

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "learnbridge",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	if dir := filepath.Dir(cfg.StorePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Sync()
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	st, err := store.Open(cfg.StorePath, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}

	b := bus.New(log)
	if cfg.RedisAddr != "" {
		tr, err := bus.NewRedisTransport(cfg.RedisAddr, cfg.BusChannel, log)
		if err != nil {
			log.Warn("redis bus unavailable, running local-only", "addr", cfg.RedisAddr, "error", err)
		} else if err := b.AttachTransport(context.Background(), tr); err != nil {
			log.Warn("redis bus attach failed, running local-only", "error", err)
		}
	}

	apic, err := api.New(api.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.APIMaxRetries,
	}, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	serviceset := wireServices(st, apic, b, cfg, log)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Store:        st,
		Bus:          b,
		API:          apic,
		Services:     serviceset,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background sync poller. Safe to call once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Syncer != nil {
		a.Services.Syncer.Start(ctx)
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		a.Bus.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
