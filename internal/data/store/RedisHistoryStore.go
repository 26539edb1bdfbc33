package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pharma-intellect/pharmarag/internal/adapter/utils"
	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/internal/data/redisstore"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

// RedisHistoryStore keeps each client's recent query results in a
// Redis list keyed by client id.
type RedisHistoryStore struct {
	store  *redisstore.Store
	logger *logging.Logger
}

func NewRedisHistoryStore(store *redisstore.Store) *RedisHistoryStore {
	return &RedisHistoryStore{
		store:  store,
		logger: logging.NewLogger("HistoryStore"),
	}
}

func (s *RedisHistoryStore) ValidateClientId(ctx context.Context, id string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "clientId", id)
	log.Debug("validating client id")
	isFound, err := s.store.Exists(ctx, id)
	if err != nil && !s.store.IsNil(err) {
		log.Error("failed checking client id", "error", err)
		return false
	}
	return isFound
}

func (s *RedisHistoryStore) InitNewClient(ctx context.Context, id string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "clientId", id)
	log.Debug("initializing new client history")
	if err := s.store.Del(ctx, id); err != nil && !s.store.IsNil(err) {
		log.Error("error resetting client history", "error", err)
	}
	return s.saveResult(ctx, id, jobmodel.JobPayload{})
}

func (s *RedisHistoryStore) TrySaveResult(ctx context.Context, id string, payload jobmodel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "clientId", id)
	if !s.ValidateClientId(ctx, id) {
		err := errors.New("unknown client id")
		log.Error("refusing to save result", "error", err)
		return err
	}
	return s.saveResult(ctx, id, payload)
}

func (s *RedisHistoryStore) saveResult(ctx context.Context, id string, payload jobmodel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "clientId", id)
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("error marshalling result", "error", err)
		return err
	}
	if err := s.store.ListPush(ctx, id, data); err != nil {
		log.Error("error saving result", "error", err)
		return err
	}
	if err := s.store.Expire(ctx, id, config.RedisHistoryStoreTTL); err != nil {
		log.Warn("could not refresh history ttl", "error", err)
	}
	log.Debug("saved result")
	return nil
}

// GetRecentResults returns up to the last five results, newest first.
func (s *RedisHistoryStore) GetRecentResults(ctx context.Context, clientId string) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "clientId", clientId)
	log.Debug("getting result history")

	res, err := s.store.ListRecent(ctx, clientId)
	if err != nil {
		log.Error("error getting history", "error", err)
		return nil, err
	}
	return utils.ReverseStringArray(res), nil
}
