package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossfreedman/rally/internal/models"
)

func newTestCache(maxEntries int) (*CacheService, *time.Time) {
	cs := NewCacheService(maxEntries, 0)
	clock := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cs.now = func() time.Time { return clock }
	return cs, &clock
}

func TestCacheService_TTL(t *testing.T) {
	cs, clock := newTestCache(0)

	cs.Set("a", 1, time.Minute)
	v, ok := cs.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	*clock = clock.Add(time.Minute)
	_, ok = cs.Get("a")
	assert.False(t, ok)

	cs.purgeExpired()
	assert.Equal(t, 0, cs.Len())
}

func TestCacheService_EvictsWithinBound(t *testing.T) {
	cs, clock := newTestCache(2)

	cs.Set("soon", 1, time.Minute)
	cs.Set("later", 2, time.Hour)
	cs.Set("new", 3, time.Hour)

	assert.Equal(t, 2, cs.Len())
	_, ok := cs.Get("soon")
	assert.False(t, ok)

	// Expired entries go first.
	*clock = clock.Add(2 * time.Hour)
	cs.Set("x", 4, time.Hour)
	cs.Set("y", 5, time.Hour)
	assert.Equal(t, 2, cs.Len())

	// Overwriting an existing key never evicts.
	cs.Set("y", 6, time.Hour)
	v, ok := cs.Get("x")
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestCacheService_GetOrSet(t *testing.T) {
	cs, _ := newTestCache(0)
	calls := 0
	load := func(ctx context.Context) (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cs.GetOrSet(context.Background(), "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	_, err := cs.GetOrSet(context.Background(), "bad", time.Minute, func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	_, ok := cs.Get("bad")
	assert.False(t, ok)
}

func TestCacheService_CloseIsIdempotent(t *testing.T) {
	cs := NewCacheService(10, time.Millisecond)
	cs.Close()
	cs.Close()
}

type countingTeams struct {
	teams map[int64]string
	calls [][]int64
	err   error
}

func (c *countingTeams) GetByIDs(ctx context.Context, ids []int64) ([]models.Team, error) {
	c.calls = append(c.calls, ids)
	if c.err != nil {
		return nil, c.err
	}
	var out []models.Team
	for _, id := range ids {
		if name, ok := c.teams[id]; ok {
			out = append(out, models.Team{ID: id, Name: name})
		}
	}
	return out, nil
}

func TestTeamNameCache(t *testing.T) {
	cs, _ := newTestCache(0)
	loader := &countingTeams{teams: map[int64]string{9: "Tigers", 10: "Lions"}}
	c := NewTeamNameCache(cs, loader, time.Hour)

	names := c.TeamNames(context.Background(), 9, 10, 11)
	assert.Equal(t, map[int64]string{9: "Tigers", 10: "Lions"}, names)

	names = c.TeamNames(context.Background(), 9, 10)
	assert.Equal(t, map[int64]string{9: "Tigers", 10: "Lions"}, names)
	assert.Len(t, loader.calls, 1)
}

func TestTeamNameCache_LoaderFailure(t *testing.T) {
	cs, _ := newTestCache(0)
	loader := &countingTeams{err: errors.New("db down")}
	c := NewTeamNameCache(cs, loader, time.Hour)

	assert.Empty(t, c.TeamNames(context.Background(), 9))
}
