package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kutbudev/crud-docs/pkg/models"
	"github.com/redis/go-redis/v9"
)

// CachedRepository adds a redis cache in front of Find. Reads fill the cache,
// writes go through it. Any cache failure falls back to the wrapped repository.
type CachedRepository struct {
	Repository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps inner with a redis cache. A nil client disables caching.
func NewCachedRepository(inner Repository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{
		Repository: inner,
		client:     client,
		ttl:        ttl,
		logger:     logger,
	}
}

// NewRedisClient builds a client from a comma separated address list
func NewRedisClient(addrs []string, password string) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})
}

// tombstone marks a deleted crud. Ids are never reused, so a tombstone
// only has to outlive in-flight readers.
const tombstone = "-"

func cacheKey(id uint) string {
	return fmt.Sprintf("crud:%d", id)
}

// Find serves from the cache and fills it on a miss. The fill uses SETNX so a
// reader that loaded the row before a concurrent Save cannot overwrite the
// value that Save wrote.
func (r *CachedRepository) Find(ctx context.Context, id uint) (*models.Crud, error) {
	if r.client == nil {
		return r.Repository.Find(ctx, id)
	}

	key := cacheKey(id)
	cached, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil && cached == tombstone:
		return nil, ErrNotFound
	case err == nil:
		var crud models.Crud
		if jsonErr := json.Unmarshal([]byte(cached), &crud); jsonErr == nil {
			r.logger.Debug("cache hit", "key", key)
			return &crud, nil
		}
		r.logger.Warn("discarding unreadable cache entry", "key", key)
		r.invalidate(ctx, id)
	case errors.Is(err, redis.Nil):
		r.logger.Debug("cache miss", "key", key)
	default:
		r.logger.Warn("cache read failed", "key", key, "error", err)
	}

	crud, err := r.Repository.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(crud); err == nil {
		if err := r.client.SetNX(ctx, key, data, r.ttl).Err(); err != nil {
			r.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return crud, nil
}

func (r *CachedRepository) Save(ctx context.Context, crud *models.Crud) error {
	if err := r.Repository.Save(ctx, crud); err != nil {
		return err
	}
	r.refresh(ctx, crud.ID)
	return nil
}

func (r *CachedRepository) AttachTag(ctx context.Context, crudID uint, tag *models.Tag) error {
	if err := r.Repository.AttachTag(ctx, crudID, tag); err != nil {
		return err
	}
	r.refresh(ctx, crudID)
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id uint) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	if r.client == nil {
		return nil
	}
	if err := r.client.Set(ctx, cacheKey(id), tombstone, r.ttl).Err(); err != nil {
		r.logger.Warn("cache tombstone failed", "key", cacheKey(id), "error", err)
		r.invalidate(ctx, id)
	}
	return nil
}

// Health reports the wrapped repository's health; the cache is optional.
func (r *CachedRepository) Health(ctx context.Context) error {
	if hc, ok := r.Repository.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// refresh writes the stored state of a crud through to the cache after a
// change. When that is not possible the entry is dropped instead.
func (r *CachedRepository) refresh(ctx context.Context, id uint) {
	if r.client == nil {
		return
	}
	crud, err := r.Repository.Find(ctx, id)
	if err != nil {
		r.logger.Warn("cache refresh failed", "key", cacheKey(id), "error", err)
		r.invalidate(ctx, id)
		return
	}
	data, err := json.Marshal(crud)
	if err == nil {
		err = r.client.Set(ctx, cacheKey(id), data, r.ttl).Err()
	}
	if err != nil {
		r.logger.Warn("cache write failed", "key", cacheKey(id), "error", err)
		r.invalidate(ctx, id)
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, id uint) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", "key", cacheKey(id), "error", err)
	}
}
