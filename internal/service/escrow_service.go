package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/lineup"
	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/metrics"
	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
	"github.com/rossfreedman/rally/internal/repository"
	"github.com/rossfreedman/rally/internal/validation"
	"github.com/rossfreedman/rally/internal/ws"
)

// Viewer roles returned with escrow details.
const (
	ViewerRoleRecipient = "recipient"
	ViewerRoleInitiator = "initiator"
)

const myEscrowsLimit = 100

// EscrowRepository is the storage used by EscrowService.
type EscrowRepository interface {
	Create(ctx context.Context, e *models.LineupEscrow) error
	GetByToken(ctx context.Context, token string) (*models.LineupEscrow, error)
	MarkExpired(ctx context.Context, id int64) (bool, error)
	SubmitRecipientLineup(ctx context.Context, id int64, lineup string, at time.Time) (bool, error)
	RecordView(ctx context.Context, escrowID int64, viewerContact string, at time.Time) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListByInitiator(ctx context.Context, userID int64, limit int) ([]models.LineupEscrow, error)
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// TeamNameResolver maps team ids to display names.
type TeamNameResolver interface {
	TeamNames(ctx context.Context, ids ...int64) map[int64]string
}

// Notifier dispatches escrow messages.
type Notifier interface {
	SendInvitation(ctx context.Context, e *models.LineupEscrow) bool
	NotifyBothParties(ctx context.Context, e *models.LineupEscrow)
}

// EscrowService runs the lineup escrow state machine:
// pending -> both_submitted, or pending -> expired.
type EscrowService struct {
	repo          EscrowRepository
	users         UserLookup
	teams         TeamNameResolver
	notifier      Notifier
	push          EventPusher
	metrics       *metrics.Metrics
	defaultExpiry time.Duration
	now           func() time.Time
}

// NewEscrowService creates the service. push and m may be nil.
func NewEscrowService(
	repo EscrowRepository,
	users UserLookup,
	teams TeamNameResolver,
	notifier Notifier,
	push EventPusher,
	m *metrics.Metrics,
	defaultExpiry time.Duration,
) *EscrowService {
	return &EscrowService{
		repo:          repo,
		users:         users,
		teams:         teams,
		notifier:      notifier,
		push:          push,
		metrics:       m,
		defaultExpiry: defaultExpiry,
		now:           time.Now,
	}
}

// CreateEscrowInput is the initiator's request.
type CreateEscrowInput struct {
	InitiatorUserID  int64
	RecipientName    string
	RecipientContact string
	ContactType      models.ContactType
	InitiatorLineup  string
	Subject          string
	MessageBody      string
	InitiatorTeamID  *int64
	RecipientTeamID  *int64
	// ExpiresInHours overrides the default horizon when set.
	ExpiresInHours *int
}

// CreateEscrowResult is returned to the initiator.
type CreateEscrowResult struct {
	EscrowID         int64  `json:"escrow_id"`
	EscrowToken      string `json:"escrow_token"`
	NotificationSent bool   `json:"notification_sent"`
}

// SubmitResult is returned after a successful recipient submission.
type SubmitResult struct {
	EscrowID      int64 `json:"escrow_id"`
	BothSubmitted bool  `json:"both_submitted"`
}

// EscrowDetails is the disclosed view of an escrow.
type EscrowDetails struct {
	ID                   int64               `json:"id"`
	InitiatorName        string              `json:"initiator_name"`
	RecipientName        string              `json:"recipient_name"`
	InitiatorTeamName    *string             `json:"initiator_team_name"`
	RecipientTeamName    *string             `json:"recipient_team_name"`
	InitiatorLineup      string              `json:"initiator_lineup"`
	RecipientLineup      *string             `json:"recipient_lineup"`
	Subject              string              `json:"subject"`
	MessageBody          string              `json:"message_body"`
	Status               models.EscrowStatus `json:"status"`
	CreatedAt            time.Time           `json:"created_at"`
	InitiatorSubmittedAt time.Time           `json:"initiator_submitted_at"`
	RecipientSubmittedAt *time.Time          `json:"recipient_submitted_at"`
	ExpiresAt            time.Time           `json:"expires_at"`
	ViewerRole           string              `json:"viewer_role"`
}

// EscrowDisclosure pairs the details with the visibility flag.
type EscrowDisclosure struct {
	Escrow             *EscrowDetails
	BothLineupsVisible bool
}

// EscrowSummary is one row of the initiator's escrow list.
type EscrowSummary struct {
	ID                int64               `json:"id"`
	EscrowToken       string              `json:"escrow_token"`
	RecipientName     string              `json:"recipient_name"`
	ContactType       models.ContactType  `json:"contact_type"`
	InitiatorTeamName *string             `json:"initiator_team_name"`
	RecipientTeamName *string             `json:"recipient_team_name"`
	InitiatorLineup   string              `json:"initiator_lineup"`
	RecipientLineup   *string             `json:"recipient_lineup"`
	Status            models.EscrowStatus `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	ExpiresAt         time.Time           `json:"expires_at"`
}

// CreateEscrowSession stores a new pending escrow with the initiator's
// lineup and invites the recipient. A failed invitation does not undo creation.
func (s *EscrowService) CreateEscrowSession(ctx context.Context, in CreateEscrowInput) (*CreateEscrowResult, error) {
	if err := validateCreateInput(&in); err != nil {
		return nil, err
	}

	horizon := s.defaultExpiry
	if in.ExpiresInHours != nil {
		horizon = time.Duration(*in.ExpiresInHours) * time.Hour
	}

	token, err := NewEscrowToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "could not create lineup escrow")
	}

	now := s.now()
	e := &models.LineupEscrow{
		Token:            token,
		InitiatorUserID:  in.InitiatorUserID,
		RecipientName:    in.RecipientName,
		RecipientContact: in.RecipientContact,
		ContactType:      in.ContactType,
		InitiatorTeamID:  in.InitiatorTeamID,
		RecipientTeamID:  in.RecipientTeamID,
		InitiatorLineup:  in.InitiatorLineup,
		Subject:          in.Subject,
		MessageBody:      in.MessageBody,
		CreatedAt:        now,
		ExpiresAt:        now.Add(horizon),
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not create lineup escrow")
	}
	s.metrics.EscrowCreated()

	sent := s.notifier.SendInvitation(ctx, e)

	logger.Entry().WithFields(logrus.Fields{
		"escrow_id":         e.ID,
		"initiator_user_id": e.InitiatorUserID,
		"contact_type":      e.ContactType,
		"recipient":         logger.MaskContact(e.RecipientContact),
		"notification_sent": sent,
	}).Info("escrow service: escrow created")

	return &CreateEscrowResult{
		EscrowID:         e.ID,
		EscrowToken:      e.Token,
		NotificationSent: sent,
	}, nil
}

func validateCreateInput(in *CreateEscrowInput) error {
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.RecipientContact = strings.TrimSpace(in.RecipientContact)
	in.Subject = strings.TrimSpace(in.Subject)

	invalid := func(err error) error {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if err := validation.ValidateNonEmpty("recipient_name", in.RecipientName); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateLength("recipient_name", in.RecipientName, 0, validation.MaxNameLength); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateNonEmpty("recipient_contact", in.RecipientContact); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateLength("recipient_contact", in.RecipientContact, 0, validation.MaxContactLength); err != nil {
		return invalid(err)
	}

	switch in.ContactType {
	case models.ContactTypeEmail:
		if err := validation.ValidateEmail(in.RecipientContact); err != nil {
			return invalid(err)
		}
	case models.ContactTypeSMS:
		if err := validation.ValidatePhone(in.RecipientContact); err != nil {
			return invalid(err)
		}
	default:
		return apperror.New(apperror.ErrCodeValidation, "contact_type must be email or sms")
	}

	if err := validation.ValidateLineup("initiator_lineup", in.InitiatorLineup); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateLength("subject", in.Subject, 0, validation.MaxSubjectLength); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateLength("message_body", in.MessageBody, 0, validation.MaxMessageLength); err != nil {
		return invalid(err)
	}
	if in.ExpiresInHours != nil {
		if err := validation.ValidateExpiryHours(*in.ExpiresInHours); err != nil {
			return invalid(err)
		}
	}

	return nil
}

// SubmitRecipientLineup records the recipient's lineup and reveals both.
// It succeeds at most once per escrow; every later call reports not found.
func (s *EscrowService) SubmitRecipientLineup(ctx context.Context, token, recipientContact, recipientLineup string) (*SubmitResult, error) {
	result, err := s.submit(ctx, token, recipientContact, recipientLineup)
	s.metrics.EscrowSubmission(outcome(err))
	return result, err
}

func (s *EscrowService) submit(ctx context.Context, token, recipientContact, recipientLineup string) (*SubmitResult, error) {
	if err := validation.ValidateLineup("recipient_lineup", recipientLineup); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	now := s.now()

	e, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.materializeIfExpired(ctx, e, now); err != nil {
		return nil, err
	}

	// A used token reads exactly like an unknown one, whoever asks.
	if e.Status == models.EscrowStatusBothSubmitted {
		return nil, apperror.ErrEscrowNotFound
	}

	if !ContactsMatch(e.RecipientContact, recipientContact, e.ContactType) {
		return nil, apperror.ErrContactMismatch
	}

	if !e.Status.CanTransitionTo(models.EscrowStatusBothSubmitted) {
		if e.Status == models.EscrowStatusExpired {
			return nil, apperror.ErrEscrowExpired
		}
		return nil, apperror.ErrEscrowNotFound
	}

	ok, err := s.repo.SubmitRecipientLineup(ctx, e.ID, recipientLineup, now)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not submit lineup")
	}
	if !ok {
		// Lost the race against a concurrent submission.
		return nil, apperror.ErrEscrowNotFound
	}

	e.RecipientLineup = &recipientLineup
	e.RecipientSubmittedAt = &now
	e.Status = models.EscrowStatusBothSubmitted

	logger.Entry().WithFields(logrus.Fields{
		"escrow_id":    e.ID,
		"contact_type": e.ContactType,
	}).Info("escrow service: both lineups submitted")

	s.notifier.NotifyBothParties(ctx, e)

	return &SubmitResult{EscrowID: e.ID, BothSubmitted: true}, nil
}

// GetEscrowDetails returns what viewerContact may see of the escrow. While
// pending only the initiator's lineup is disclosed. The initiator may view
// with the email or phone on their own profile.
func (s *EscrowService) GetEscrowDetails(ctx context.Context, token, viewerContact string) (*EscrowDisclosure, error) {
	d, err := s.details(ctx, token, viewerContact)
	s.metrics.EscrowView(outcome(err))
	return d, err
}

func (s *EscrowService) details(ctx context.Context, token, viewerContact string) (*EscrowDisclosure, error) {
	viewerContact = strings.TrimSpace(viewerContact)
	if viewerContact == "" {
		return nil, apperror.ErrContactRequired
	}

	now := s.now()

	e, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.materializeIfExpired(ctx, e, now); err != nil {
		return nil, err
	}

	initiator, err := s.users.GetByID(ctx, e.InitiatorUserID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrow")
		}
		initiator = nil
	}

	var role string
	switch {
	case ContactsMatch(e.RecipientContact, viewerContact, e.ContactType):
		role = ViewerRoleRecipient
	case matchesUser(initiator, viewerContact):
		role = ViewerRoleInitiator
	default:
		return nil, apperror.ErrContactMismatch
	}

	if err := s.repo.RecordView(ctx, e.ID, viewerContact, now); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrow")
	}

	if role == ViewerRoleRecipient && s.push != nil && e.Status == models.EscrowStatusPending {
		if err := s.push.BroadcastToUser(e.InitiatorUserID, ws.EventEscrowViewed, map[string]any{
			"escrow_id": e.ID,
		}); err != nil {
			logger.Entry().WithError(err).Debug("escrow service: view push failed")
		}
	}

	visible := e.Status != models.EscrowStatusPending
	details := &EscrowDetails{
		ID:                   e.ID,
		RecipientName:        e.RecipientName,
		InitiatorLineup:      lineup.Clean(e.InitiatorLineup),
		Subject:              e.Subject,
		MessageBody:          e.MessageBody,
		Status:               e.Status,
		CreatedAt:            e.CreatedAt,
		InitiatorSubmittedAt: e.InitiatorSubmittedAt,
		RecipientSubmittedAt: e.RecipientSubmittedAt,
		ExpiresAt:            e.ExpiresAt,
		ViewerRole:           role,
	}
	if initiator != nil {
		details.InitiatorName = initiator.FullName()
	}
	if visible && e.RecipientLineup != nil {
		cleaned := lineup.Clean(*e.RecipientLineup)
		details.RecipientLineup = &cleaned
	}
	details.InitiatorTeamName, details.RecipientTeamName = s.teamNames(ctx, e)

	return &EscrowDisclosure{Escrow: details, BothLineupsVisible: visible}, nil
}

// ListMyEscrows returns the escrows userID created, newest first. Overdue
// pending rows are reported as expired without being written.
func (s *EscrowService) ListMyEscrows(ctx context.Context, userID int64) ([]EscrowSummary, error) {
	escrows, err := s.repo.ListByInitiator(ctx, userID, myEscrowsLimit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrows")
	}

	var teamIDs []int64
	for _, e := range escrows {
		if e.InitiatorTeamID != nil {
			teamIDs = append(teamIDs, *e.InitiatorTeamID)
		}
		if e.RecipientTeamID != nil {
			teamIDs = append(teamIDs, *e.RecipientTeamID)
		}
	}
	names := s.resolveTeams(ctx, teamIDs)

	now := s.now()
	out := make([]EscrowSummary, 0, len(escrows))
	for i := range escrows {
		e := &escrows[i]
		status := e.Status
		if e.IsOverdue(now) {
			status = models.EscrowStatusExpired
		}

		summary := EscrowSummary{
			ID:                e.ID,
			EscrowToken:       e.Token,
			RecipientName:     e.RecipientName,
			ContactType:       e.ContactType,
			InitiatorTeamName: lookupName(names, e.InitiatorTeamID),
			RecipientTeamName: lookupName(names, e.RecipientTeamID),
			InitiatorLineup:   lineup.Clean(e.InitiatorLineup),
			Status:            status,
			CreatedAt:         e.CreatedAt,
			ExpiresAt:         e.ExpiresAt,
		}
		if e.RecipientLineup != nil {
			cleaned := lineup.Clean(*e.RecipientLineup)
			summary.RecipientLineup = &cleaned
		}
		out = append(out, summary)
	}

	return out, nil
}

// ExpireOverdue moves every overdue pending escrow to expired.
func (s *EscrowService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not expire lineup escrows")
	}
	s.metrics.EscrowsExpired(n)
	return n, nil
}

func (s *EscrowService) lookup(ctx context.Context, token string) (*models.LineupEscrow, error) {
	token = strings.TrimSpace(token)
	if !LooksLikeEscrowToken(token) {
		return nil, apperror.ErrEscrowNotFound
	}

	e, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrEscrowNotFound) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrow")
	}
	return e, nil
}

// materializeIfExpired persists the pending -> expired transition for an
// overdue escrow and updates e. Every read path calls it before looking at
// e.Status.
func (s *EscrowService) materializeIfExpired(ctx context.Context, e *models.LineupEscrow, now time.Time) error {
	if !e.IsOverdue(now) {
		return nil
	}

	ok, err := s.repo.MarkExpired(ctx, e.ID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrow")
	}
	if ok {
		e.Status = models.EscrowStatusExpired
		s.metrics.EscrowsExpired(1)
		logger.Entry().WithField("escrow_id", e.ID).Info("escrow service: escrow expired")
		return nil
	}

	// Someone else moved the row out of pending first; take their outcome.
	fresh, err := s.repo.GetByToken(ctx, e.Token)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load lineup escrow")
	}
	*e = *fresh
	return nil
}

func (s *EscrowService) teamNames(ctx context.Context, e *models.LineupEscrow) (*string, *string) {
	var ids []int64
	if e.InitiatorTeamID != nil {
		ids = append(ids, *e.InitiatorTeamID)
	}
	if e.RecipientTeamID != nil {
		ids = append(ids, *e.RecipientTeamID)
	}
	names := s.resolveTeams(ctx, ids)
	return lookupName(names, e.InitiatorTeamID), lookupName(names, e.RecipientTeamID)
}

func (s *EscrowService) resolveTeams(ctx context.Context, ids []int64) map[int64]string {
	if len(ids) == 0 || s.teams == nil {
		return nil
	}
	return s.teams.TeamNames(ctx, ids...)
}

func lookupName(names map[int64]string, id *int64) *string {
	if id == nil {
		return nil
	}
	if name, ok := names[*id]; ok {
		return &name
	}
	return nil
}

// outcome is the metrics label of a service result.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperror.CodeOf(err) {
	case apperror.ErrCodeNotFound:
		return "not_found"
	case apperror.ErrCodeExpired:
		return "expired"
	case apperror.ErrCodeContactMismatch:
		return "contact_mismatch"
	case apperror.ErrCodeValidation:
		return "invalid"
	default:
		return "error"
	}
}
