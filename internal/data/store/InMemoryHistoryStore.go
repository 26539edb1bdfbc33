package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/pharma-intellect/pharmarag/internal/adapter/utils"
	"github.com/pharma-intellect/pharmarag/internal/domain/jobmodel"
)

const inMemoryRecentResults = 5

type InMemoryHistoryStore struct {
	lock    *sync.RWMutex
	history map[string][]jobmodel.JobPayload
}

func InitInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{
		lock:    new(sync.RWMutex),
		history: make(map[string][]jobmodel.JobPayload),
	}
}

func (store *InMemoryHistoryStore) ValidateClientId(ctx context.Context, id string) bool {
	store.lock.RLock()
	defer store.lock.RUnlock()
	_, ok := store.history[id]
	return ok
}

func (store *InMemoryHistoryStore) InitNewClient(ctx context.Context, id string) error {
	store.lock.Lock()
	defer store.lock.Unlock()
	store.history[id] = make([]jobmodel.JobPayload, 0)
	return nil
}

func (store *InMemoryHistoryStore) TrySaveResult(ctx context.Context, id string, payload jobmodel.JobPayload) error {
	if !store.ValidateClientId(ctx, id) {
		return errors.New("unknown client id")
	}
	store.lock.Lock()
	defer store.lock.Unlock()
	store.history[id] = append(store.history[id], payload)
	return nil
}

func (store *InMemoryHistoryStore) GetRecentResults(ctx context.Context, clientId string) ([]string, error) {
	store.lock.RLock()
	defer store.lock.RUnlock()

	results, ok := store.history[clientId]
	if !ok {
		return []string{}, nil
	}
	if len(results) > inMemoryRecentResults {
		results = results[len(results)-inMemoryRecentResults:]
	}
	out := make([]string, 0, len(results))
	for _, p := range results {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		out = append(out, string(data))
	}
	return utils.ReverseStringArray(out), nil
}
