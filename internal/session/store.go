// Package session holds the bearer token of the signed-in user.
//
// The token is the only persisted client state. Every backend keeps it under
// the single well-known key TokenKey, and callers read it on each request
// instead of caching it, so a Clear is observed by the next call.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pearguacamole/VroomVault/internal/config"
)

// TokenKey is the key the token is stored under.
const TokenKey = "token"

var ErrEmptyToken = errors.New("session: empty token")

// Store is the session contract consumed by the catalog client.
type Store interface {
	// Acquire persists token; subsequent authenticated calls attach it.
	Acquire(ctx context.Context, token string) error

	// Read returns the current token and whether one is present.
	Read(ctx context.Context) (string, bool, error)

	// Clear erases the persisted token.
	Clear(ctx context.Context) error
}

// Backend is a Store that owns resources.
type Backend interface {
	Store
	Close() error
}

// Open builds the backend selected by cfg.
func Open(cfg config.SessionConfig) (Backend, error) {
	switch cfg.Backend {
	case config.SessionMemory:
		return NewMemoryStore(), nil
	case config.SessionRedis:
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Key, cfg.Redis.TTL), nil
	case config.SessionSQLite:
		return OpenSQLiteStore(cfg.SQLite.Dir)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func normalize(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
