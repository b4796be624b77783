package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/studybridge-backend/internal/platform/logger"
	"github.com/yungbote/studybridge-backend/internal/platform/openai"
)

type Clients struct {
	OpenAI openai.Client
	Redis  *redis.Client
}

// NewClients builds the outbound dependencies. Redis is optional: when no
// address is configured the policy cache is simply disabled.
func NewClients(cfg *Config, log *logger.Logger) (*Clients, error) {
	ai, err := openai.NewClient(log)
	if err != nil {
		return nil, err
	}
	clients := &Clients{OpenAI: ai}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, policy cache disabled", "error", err)
		} else {
			clients.Redis = rdb
		}
	}
	return clients, nil
}
