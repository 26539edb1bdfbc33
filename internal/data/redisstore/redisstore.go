package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// Store wraps one Redis logical database. Construct one per concern
// (jobs, history) and pass it down; there is no shared registry.
type Store struct {
	client *redis.Client
	logger *logging.Logger
}

// New connects and pings. Callers decide how to degrade when Redis is
// unreachable; this constructor only reports it.
func New(ctx context.Context, addr string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  addr,
		Password:              config.RedisPassword,
		DB:                    db,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping db %d: %w", db, err)
	}

	logger := logging.NewLogger(fmt.Sprintf("redisstore.db%d", db))
	logger.Info("connected to redis", "addr", addr, "db", db)
	return &Store{client: client, logger: logger}, nil
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logging.NewLogger("redisstore.test"),
	}
}

func (s *Store) Close() error {
	s.logger.Info("closing redis store")
	return s.client.Close()
}
