package session

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates an in-process token store.
func NewMemoryStore() *MemoryStore {
	// Tokens never expire locally and no janitor goroutine is needed.
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) Acquire(_ context.Context, token string) error {
	token, err := normalize(token)
	if err != nil {
		return err
	}
	s.cache.Set(TokenKey, token, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Read(_ context.Context) (string, bool, error) {
	if x, found := s.cache.Get(TokenKey); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.cache.Delete(TokenKey)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
