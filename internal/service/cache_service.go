package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/goroutine"
	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/models"
)

// CacheService is a bounded in-memory cache with per-entry TTL. A janitor
// goroutine drops expired entries until Close is called.
type CacheService struct {
	mu         sync.RWMutex
	cache      map[string]*cacheEntry
	maxEntries int
	now        func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService creates a cache holding at most maxEntries values
// (0 means unbounded) and sweeping every cleanupInterval.
func NewCacheService(maxEntries int, cleanupInterval time.Duration) *CacheService {
	cs := &CacheService{
		cache:      make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		goroutine.SafeGo(func() { cs.cleanup(cleanupInterval) })
	}

	return cs
}

// Get returns a live value.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || !cs.now().Before(entry.expiresAt) {
		return nil, false
	}

	return entry.data, true
}

// Set stores value for ttl, evicting to stay within the bound.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if _, exists := cs.cache[key]; !exists && cs.maxEntries > 0 && len(cs.cache) >= cs.maxEntries {
		cs.evictLocked(now)
	}

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: now.Add(ttl),
	}
}

// Delete removes a key.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// Len returns the number of stored entries, expired or not.
func (cs *CacheService) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.cache)
}

// GetOrSet returns the cached value or computes and stores it.
func (cs *CacheService) GetOrSet(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	if value, found := cs.Get(key); found {
		return value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	cs.Set(key, value, ttl)
	return value, nil
}

// Close stops the janitor.
func (cs *CacheService) Close() {
	cs.closeOnce.Do(func() { close(cs.stop) })
}

// evictLocked drops expired entries, or failing that the entry closest to expiry.
func (cs *CacheService) evictLocked(now time.Time) {
	var (
		victim    string
		victimExp time.Time
	)
	for key, entry := range cs.cache {
		if !now.Before(entry.expiresAt) {
			delete(cs.cache, key)
			continue
		}
		if victim == "" || entry.expiresAt.Before(victimExp) {
			victim, victimExp = key, entry.expiresAt
		}
	}

	if len(cs.cache) >= cs.maxEntries && victim != "" {
		delete(cs.cache, victim)
	}
}

func (cs *CacheService) purgeExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	for key, entry := range cs.cache {
		if !now.Before(entry.expiresAt) {
			delete(cs.cache, key)
		}
	}
}

func (cs *CacheService) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cs.stop:
			return
		case <-ticker.C:
			cs.purgeExpired()
		}
	}
}

// TeamLoader loads teams by id.
type TeamLoader interface {
	GetByIDs(ctx context.Context, ids []int64) ([]models.Team, error)
}

// TeamNameCache resolves team display names through a CacheService.
type TeamNameCache struct {
	cache *CacheService
	teams TeamLoader
	ttl   time.Duration
}

// NewTeamNameCache creates the resolver.
func NewTeamNameCache(cache *CacheService, teams TeamLoader, ttl time.Duration) *TeamNameCache {
	return &TeamNameCache{cache: cache, teams: teams, ttl: ttl}
}

func teamCacheKey(id int64) string {
	return "team:" + strconv.FormatInt(id, 10)
}

// TeamNames returns the names it can resolve. Lookup failures are logged and
// leave the affected ids out of the result.
func (c *TeamNameCache) TeamNames(ctx context.Context, ids ...int64) map[int64]string {
	names := make(map[int64]string, len(ids))
	var missing []int64

	for _, id := range ids {
		if _, seen := names[id]; seen {
			continue
		}
		if v, ok := c.cache.Get(teamCacheKey(id)); ok {
			names[id] = v.(string)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return names
	}

	teams, err := c.teams.GetByIDs(ctx, missing)
	if err != nil {
		logger.Entry().WithFields(logrus.Fields{
			"team_ids": missing,
			"error":    err.Error(),
		}).Warn("team name cache: lookup failed")
		return names
	}

	for _, t := range teams {
		names[t.ID] = t.Name
		c.cache.Set(teamCacheKey(t.ID), t.Name, c.ttl)
	}

	return names
}
