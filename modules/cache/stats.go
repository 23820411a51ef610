package cache

import (
	"context"
	"fmt"
	"log"
	"sync"

	domain "github.com/example/task-manager/domain/task"
	"golang.org/x/sync/singleflight"
)

// TaskStatsCache memoizes per-owner task stats. Redis failures are logged
// and the loader is used directly, so stats stay available without Redis.
//
// Each owner has a version bumped by Invalidate. A load only writes its
// result back if the version did not move while it ran, so stats read
// before a mutation never outlive that mutation's invalidation.
type TaskStatsCache struct {
	cache   *Cache
	sfGroup singleflight.Group

	mu       sync.Mutex
	versions map[string]uint64
}

// NewTaskStatsCache creates a TaskStatsCache on top of c.
func NewTaskStatsCache(c *Cache) *TaskStatsCache {
	return &TaskStatsCache{cache: c, versions: make(map[string]uint64)}
}

func (s *TaskStatsCache) version(ownerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[ownerID]
}

func statsKey(ownerID string) string {
	return "stats:" + ownerID
}

// Stats returns the cached stats for ownerID, calling load on a miss.
// Concurrent misses for one owner share a single load.
func (s *TaskStatsCache) Stats(ctx context.Context, ownerID string, load func(context.Context) (domain.Stats, error)) (domain.Stats, error) {
	key := statsKey(ownerID)

	var cached domain.Stats
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[cache] Cache error for owner %s: %v", ownerID, err)
	}
	if found {
		return cached, nil
	}

	ver := s.version(ownerID)
	val, err, _ := s.sfGroup.Do(fmt.Sprintf("%s@%d", key, ver), func() (any, error) {
		stats, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.store(ctx, ownerID, key, ver, stats)
		return stats, nil
	})
	if err != nil {
		return domain.Stats{}, err
	}
	return val.(domain.Stats), nil
}

// store caches stats loaded at version ver, backing out if Invalidate ran
// in the meantime.
func (s *TaskStatsCache) store(ctx context.Context, ownerID, key string, ver uint64, stats domain.Stats) {
	if s.version(ownerID) != ver {
		return
	}
	if err := s.cache.Set(ctx, key, stats); err != nil {
		log.Printf("[cache] Warning: failed to cache stats for owner %s: %v", ownerID, err)
		return
	}
	if s.version(ownerID) != ver {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[cache] Warning: failed to drop stale stats for owner %s: %v", ownerID, err)
		}
	}
}

// Invalidate drops the cached stats for ownerID.
func (s *TaskStatsCache) Invalidate(ctx context.Context, ownerID string) {
	s.mu.Lock()
	s.versions[ownerID]++
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, statsKey(ownerID)); err != nil {
		log.Printf("[cache] Warning: failed to invalidate stats for owner %s: %v", ownerID, err)
	}
}
