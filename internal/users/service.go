package users

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/quillstack/userd/internal/auth"
)

const listCacheKey = "userd:users:list"

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// Service handles user listing with a short-lived cache in front of the
// store. Concurrent cache rebuilds collapse into a single query.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewService builds a Service instance. A nil cache client disables caching.
func NewService(repo RepositoryPort, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListUsers returns the public view of all registered users.
func (s *Service) ListUsers(ctx context.Context) ([]auth.PublicUser, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, listCacheKey).Bytes(); err == nil {
			var views []auth.PublicUser
			if err := json.Unmarshal(cached, &views); err == nil {
				return views, nil
			}
			// A corrupt entry falls through to a rebuild.
			s.cache.Del(ctx, listCacheKey)
		}
	}

	result, err, _ := s.group.Do(listCacheKey, func() (any, error) {
		records, err := s.repo.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		views := make([]auth.PublicUser, 0, len(records))
		for i := range records {
			views = append(views, records[i].Public())
		}
		if s.cache != nil && s.ttl > 0 {
			if payload, err := json.Marshal(views); err == nil {
				if err := s.cache.Set(ctx, listCacheKey, payload, s.ttl).Err(); err != nil {
					s.logger.Warn("cache users list", slog.Any("error", err))
				}
			}
		}
		return views, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]auth.PublicUser), nil
}
