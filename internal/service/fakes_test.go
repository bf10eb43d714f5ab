package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/repository"
)

// fakeEscrowRepo is an in-memory EscrowRepository with the same conditional
// update semantics as the SQL one.
type fakeEscrowRepo struct {
	mu        sync.Mutex
	byToken   map[string]*models.LineupEscrow
	views     []recordedView
	nextID    int64
	createErr error
	activity  []int64
}

type recordedView struct {
	EscrowID      int64
	ViewerContact string
	ViewedAt      time.Time
}

func newFakeEscrowRepo() *fakeEscrowRepo {
	return &fakeEscrowRepo{byToken: make(map[string]*models.LineupEscrow)}
}

func (r *fakeEscrowRepo) Create(ctx context.Context, e *models.LineupEscrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	e.ID = r.nextID
	e.Status = models.EscrowStatusPending
	e.InitiatorSubmittedAt = e.CreatedAt
	cp := *e
	r.byToken[e.Token] = &cp
	r.activity = append(r.activity, e.InitiatorUserID)
	return nil
}

func (r *fakeEscrowRepo) GetByToken(ctx context.Context, token string) (*models.LineupEscrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byToken[token]
	if !ok {
		return nil, repository.ErrEscrowNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEscrowRepo) byID(id int64) *models.LineupEscrow {
	for _, e := range r.byToken {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (r *fakeEscrowRepo) MarkExpired(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.byID(id)
	if e == nil || e.Status != models.EscrowStatusPending {
		return false, nil
	}
	e.Status = models.EscrowStatusExpired
	return true, nil
}

func (r *fakeEscrowRepo) SubmitRecipientLineup(ctx context.Context, id int64, lineup string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.byID(id)
	if e == nil || e.Status != models.EscrowStatusPending || !at.Before(e.ExpiresAt) {
		return false, nil
	}
	e.RecipientLineup = &lineup
	e.RecipientSubmittedAt = &at
	e.Status = models.EscrowStatusBothSubmitted
	return true, nil
}

func (r *fakeEscrowRepo) RecordView(ctx context.Context, escrowID int64, viewerContact string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.views = append(r.views, recordedView{EscrowID: escrowID, ViewerContact: viewerContact, ViewedAt: at})
	return nil
}

func (r *fakeEscrowRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, e := range r.byToken {
		if e.IsOverdue(now) {
			e.Status = models.EscrowStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeEscrowRepo) ListByInitiator(ctx context.Context, userID int64, limit int) ([]models.LineupEscrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.LineupEscrow
	for id := r.nextID; id > 0 && len(out) < limit; id-- {
		if e := r.byID(id); e != nil && e.InitiatorUserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEscrowRepo) stored(token string) models.LineupEscrow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.byToken[token]
}

// fakeUsers is an in-memory UserLookup.
type fakeUsers map[int64]*models.User

func (f fakeUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

type fakeTeamNames map[int64]string

func (f fakeTeamNames) TeamNames(ctx context.Context, ids ...int64) map[int64]string {
	out := make(map[int64]string)
	for _, id := range ids {
		if name, ok := f[id]; ok {
			out[id] = name
		}
	}
	return out
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendInvitation(ctx context.Context, e *models.LineupEscrow) bool {
	args := m.Called(ctx, e)
	return args.Bool(0)
}

func (m *mockNotifier) NotifyBothParties(ctx context.Context, e *models.LineupEscrow) {
	m.Called(ctx, e)
}

type recordedPush struct {
	userID int64
	event  string
}

type fakePusher struct {
	mu     sync.Mutex
	events []recordedPush
}

func (p *fakePusher) BroadcastToUser(userID int64, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedPush{userID: userID, event: event})
	return nil
}
