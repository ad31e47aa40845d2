package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/learnbridge/internal/platform/logger"
)

// redisTransport mirrors invalidation messages through a named redis
// channel so a second running process (another terminal, a tray widget)
// learns about progress changes without polling the store.
type redisTransport struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewRedisTransport(addr, channel string, log *logger.Logger) (Transport, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "learnbridge"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisTransport{
		log:     log.With("component", "RedisTransport"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (t *redisTransport) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return t.rdb.Publish(ctx, t.channel, raw).Err()
}

func (t *redisTransport) Start(ctx context.Context, onMsg func(Message)) error {
	sub := t.rdb.Subscribe(ctx, t.channel)

	// ensures the subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					t.log.Warn("bad transport payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (t *redisTransport) Close() error {
	if t == nil || t.rdb == nil {
		return nil
	}
	return t.rdb.Close()
}
