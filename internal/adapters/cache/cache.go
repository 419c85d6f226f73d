package cache

import (
	"context"
	"errors"
	"fmt"
	"stickerbot/internal/core/port"

	"github.com/rs/zerolog/log"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var ErrCacheLocked = errors.New("output cache is locked by another process")

type Config struct {
	Backend   string
	Path      string
	RedisURL  string
	Namespace string
}

// Open opens the configured output cache backend.
func Open(ctx context.Context, cfg Config) (port.OutputCache, error) {
	log.Info().Str("backend", cfg.Backend).Msg("opening output cache")

	switch cfg.Backend {
	case "", BackendSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case BackendRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.Namespace)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
