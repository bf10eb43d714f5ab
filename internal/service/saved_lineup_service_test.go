package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
	"github.com/rossfreedman/rally/internal/repository"
)

type fakeSavedLineupRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.SavedLineup
	nextID int64
	tick   time.Time
	err    error
}

func newFakeSavedLineupRepo() *fakeSavedLineupRepo {
	return &fakeSavedLineupRepo{
		rows: make(map[int64]*models.SavedLineup),
		tick: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeSavedLineupRepo) now() time.Time {
	r.tick = r.tick.Add(time.Second)
	return r.tick
}

func (r *fakeSavedLineupRepo) activeByName(userID, teamID int64, name string) *models.SavedLineup {
	for _, l := range r.rows {
		if l.IsActive && l.UserID == userID && l.TeamID == teamID && l.LineupName == name {
			return l
		}
	}
	return nil
}

func (r *fakeSavedLineupRepo) Upsert(ctx context.Context, l *models.SavedLineup) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return false, r.err
	}
	if existing := r.activeByName(l.UserID, l.TeamID, l.LineupName); existing != nil {
		existing.LineupData = l.LineupData
		existing.UpdatedAt = r.now()
		*l = *existing
		return false, nil
	}

	r.nextID++
	now := r.now()
	l.ID = r.nextID
	l.IsActive = true
	l.CreatedAt = now
	l.UpdatedAt = now
	cp := *l
	r.rows[l.ID] = &cp
	return true, nil
}

func (r *fakeSavedLineupRepo) ListActive(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.SavedLineup
	for _, l := range r.rows {
		if !l.IsActive || l.UserID != userID || (teamID != nil && l.TeamID != *teamID) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeSavedLineupRepo) owned(id, userID int64) *models.SavedLineup {
	l, ok := r.rows[id]
	if !ok || !l.IsActive || l.UserID != userID {
		return nil
	}
	return l
}

func (r *fakeSavedLineupRepo) GetOwned(ctx context.Context, id, userID int64) (*models.SavedLineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.owned(id, userID)
	if l == nil {
		return nil, repository.ErrSavedLineupNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeSavedLineupRepo) UpdateOwned(ctx context.Context, id, userID int64, name, data *string) (*models.SavedLineup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.owned(id, userID)
	if l == nil {
		return nil, repository.ErrSavedLineupNotFound
	}
	if name != nil {
		if other := r.activeByName(userID, l.TeamID, *name); other != nil && other.ID != id {
			return nil, repository.ErrSavedLineupNameTaken
		}
		l.LineupName = *name
	}
	if data != nil {
		l.LineupData = *data
	}
	l.UpdatedAt = r.now()
	cp := *l
	return &cp, nil
}

func (r *fakeSavedLineupRepo) SoftDeleteOwned(ctx context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.owned(id, userID)
	if l == nil {
		return repository.ErrSavedLineupNotFound
	}
	l.IsActive = false
	return nil
}

func strPtr(s string) *string { return &s }

func TestSavedLineupService_SaveSameNameUpdatesInPlace(t *testing.T) {
	svc := NewSavedLineupService(newFakeSavedLineupRepo())
	ctx := context.Background()
	team := int64(9)

	first, created, err := svc.SaveLineup(ctx, 5, team, "Week 1", "Court 1: A & B")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.SaveLineup(ctx, 5, team, " Week 1 ", "Court 1: C & D")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	list, err := svc.ListSavedLineups(ctx, 5, &team)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Week 1", list[0].LineupName)
	assert.Equal(t, "Court 1: C & D", list[0].LineupData)
}

func TestSavedLineupService_ListFiltersAndOrders(t *testing.T) {
	svc := NewSavedLineupService(newFakeSavedLineupRepo())
	ctx := context.Background()

	_, _, err := svc.SaveLineup(ctx, 5, 9, "Week 1", "a")
	require.NoError(t, err)
	_, _, err = svc.SaveLineup(ctx, 5, 10, "Week 1", "b")
	require.NoError(t, err)
	_, _, err = svc.SaveLineup(ctx, 6, 9, "Theirs", "c")
	require.NoError(t, err)
	_, _, err = svc.SaveLineup(ctx, 5, 9, "Week 2", "d")
	require.NoError(t, err)

	all, err := svc.ListSavedLineups(ctx, 5, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].LineupData)

	team := int64(9)
	mine, err := svc.ListSavedLineups(ctx, 5, &team)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Week 2", mine[0].LineupName)
	assert.Equal(t, "Week 1", mine[1].LineupName)
}

func TestSavedLineupService_OwnershipIsolation(t *testing.T) {
	svc := NewSavedLineupService(newFakeSavedLineupRepo())
	ctx := context.Background()

	l, _, err := svc.SaveLineup(ctx, 5, 9, "Week 1", "secret lineup")
	require.NoError(t, err)

	_, err = svc.GetSavedLineup(ctx, 6, l.ID)
	assert.ErrorIs(t, err, apperror.ErrSavedLineupNotFound)

	_, err = svc.UpdateSavedLineup(ctx, 6, l.ID, nil, strPtr("hijacked"))
	assert.ErrorIs(t, err, apperror.ErrSavedLineupNotFound)
	assert.NotContains(t, apperror.PublicMessage(err), "secret")

	err = svc.DeleteSavedLineup(ctx, 6, l.ID)
	assert.ErrorIs(t, err, apperror.ErrSavedLineupNotFound)

	// A missing id looks the same as someone else's.
	err = svc.DeleteSavedLineup(ctx, 6, 4242)
	assert.ErrorIs(t, err, apperror.ErrSavedLineupNotFound)

	got, err := svc.GetSavedLineup(ctx, 5, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret lineup", got.LineupData)
}

func TestSavedLineupService_UpdateAndDelete(t *testing.T) {
	svc := NewSavedLineupService(newFakeSavedLineupRepo())
	ctx := context.Background()

	l, _, err := svc.SaveLineup(ctx, 5, 9, "Week 1", "a")
	require.NoError(t, err)
	_, _, err = svc.SaveLineup(ctx, 5, 9, "Week 2", "b")
	require.NoError(t, err)

	updated, err := svc.UpdateSavedLineup(ctx, 5, l.ID, strPtr("Week 1 final"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Week 1 final", updated.LineupName)
	assert.Equal(t, "a", updated.LineupData)

	_, err = svc.UpdateSavedLineup(ctx, 5, l.ID, strPtr("Week 2"), nil)
	assert.ErrorIs(t, err, apperror.ErrSavedLineupConflict)

	require.NoError(t, svc.DeleteSavedLineup(ctx, 5, l.ID))
	_, err = svc.GetSavedLineup(ctx, 5, l.ID)
	assert.ErrorIs(t, err, apperror.ErrSavedLineupNotFound)

	// The name is free again once the old row is inactive.
	_, created, err := svc.SaveLineup(ctx, 5, 9, "Week 1 final", "c")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSavedLineupService_Validation(t *testing.T) {
	svc := NewSavedLineupService(newFakeSavedLineupRepo())
	ctx := context.Background()

	_, _, err := svc.SaveLineup(ctx, 5, 0, "Week 1", "a")
	assert.True(t, apperror.IsValidation(err))

	_, _, err = svc.SaveLineup(ctx, 5, 9, "   ", "a")
	assert.True(t, apperror.IsValidation(err))

	_, _, err = svc.SaveLineup(ctx, 5, 9, strings.Repeat("x", 101), "a")
	assert.True(t, apperror.IsValidation(err))

	_, _, err = svc.SaveLineup(ctx, 5, 9, "Week 1", "")
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.UpdateSavedLineup(ctx, 5, 1, nil, nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestSavedLineupService_StorageFailure(t *testing.T) {
	repo := newFakeSavedLineupRepo()
	repo.err = errors.New("connection reset")
	svc := NewSavedLineupService(repo)

	_, _, err := svc.SaveLineup(context.Background(), 5, 9, "Week 1", "a")
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
	assert.Equal(t, "could not save lineup", apperror.PublicMessage(err))
}
