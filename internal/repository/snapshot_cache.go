package repository

import (
	"context"
	"errors"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/cache"
	"SmartSignal/pkg/logger"
)

// SnapshotCache stores market snapshots in any pkg/cache backend.
type SnapshotCache struct {
	svc cache.Service
	log *logger.Logger
}

var _ domrepo.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache(svc cache.Service, log *logger.Logger) *SnapshotCache {
	return &SnapshotCache{svc: svc, log: log.With(logger.String("component", "snapshot_cache"))}
}

// Get reports a miss for any backend error so callers fall through to the
// provider.
func (c *SnapshotCache) Get(ctx context.Context, key string) (*models.MarketSnapshot, bool) {
	var snap models.MarketSnapshot
	if err := c.svc.Get(ctx, key, &snap); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn("snapshot cache get", logger.String("key", key), logger.Error(err))
		}
		return nil, false
	}
	return &snap, true
}

func (c *SnapshotCache) Set(ctx context.Context, key string, snap *models.MarketSnapshot, ttl time.Duration) error {
	if snap == nil || ttl <= 0 {
		return nil
	}
	return c.svc.Set(ctx, key, snap, ttl)
}
