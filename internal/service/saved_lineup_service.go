package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
	"github.com/rossfreedman/rally/internal/repository"
	"github.com/rossfreedman/rally/internal/validation"
)

// SavedLineupRepository is the storage used by SavedLineupService. Every
// method is scoped to the owning user.
type SavedLineupRepository interface {
	Upsert(ctx context.Context, l *models.SavedLineup) (bool, error)
	ListActive(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error)
	GetOwned(ctx context.Context, id, userID int64) (*models.SavedLineup, error)
	UpdateOwned(ctx context.Context, id, userID int64, name, data *string) (*models.SavedLineup, error)
	SoftDeleteOwned(ctx context.Context, id, userID int64) error
}

// SavedLineupService manages a captain's named lineups.
type SavedLineupService struct {
	repo SavedLineupRepository
}

func NewSavedLineupService(repo SavedLineupRepository) *SavedLineupService {
	return &SavedLineupService{repo: repo}
}

// SaveLineup stores a lineup under name for the team, overwriting the data
// of an active lineup with the same name. created reports a new row.
func (s *SavedLineupService) SaveLineup(ctx context.Context, userID, teamID int64, name, data string) (*models.SavedLineup, bool, error) {
	name = strings.TrimSpace(name)
	if teamID <= 0 {
		return nil, false, apperror.New(apperror.ErrCodeValidation, "team_id is required")
	}
	if err := validateLineupName(name); err != nil {
		return nil, false, err
	}
	if err := validateLineupData(data); err != nil {
		return nil, false, err
	}

	l := &models.SavedLineup{
		UserID:     userID,
		TeamID:     teamID,
		LineupName: name,
		LineupData: data,
	}

	created, err := s.repo.Upsert(ctx, l)
	if err != nil {
		return nil, false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not save lineup")
	}

	return l, created, nil
}

// ListSavedLineups returns active lineups, most recently updated first.
// A nil teamID lists every team.
func (s *SavedLineupService) ListSavedLineups(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error) {
	lineups, err := s.repo.ListActive(ctx, userID, teamID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "could not load saved lineups")
	}
	return lineups, nil
}

// GetSavedLineup returns one active lineup owned by userID.
func (s *SavedLineupService) GetSavedLineup(ctx context.Context, userID, id int64) (*models.SavedLineup, error) {
	l, err := s.repo.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, mapSavedLineupErr(err, "could not load saved lineup")
	}
	return l, nil
}

// UpdateSavedLineup changes the name and/or data in place. Lineups owned by
// another user are reported as not found.
func (s *SavedLineupService) UpdateSavedLineup(ctx context.Context, userID, id int64, name, data *string) (*models.SavedLineup, error) {
	if name == nil && data == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "nothing to update")
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if err := validateLineupName(trimmed); err != nil {
			return nil, err
		}
		name = &trimmed
	}
	if data != nil {
		if err := validateLineupData(*data); err != nil {
			return nil, err
		}
	}

	l, err := s.repo.UpdateOwned(ctx, id, userID, name, data)
	if err != nil {
		return nil, mapSavedLineupErr(err, "could not update saved lineup")
	}
	return l, nil
}

// DeleteSavedLineup soft-deletes a lineup owned by userID.
func (s *SavedLineupService) DeleteSavedLineup(ctx context.Context, userID, id int64) error {
	if err := s.repo.SoftDeleteOwned(ctx, id, userID); err != nil {
		return mapSavedLineupErr(err, "could not delete saved lineup")
	}
	return nil
}

func mapSavedLineupErr(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrSavedLineupNotFound):
		return apperror.ErrSavedLineupNotFound
	case errors.Is(err, repository.ErrSavedLineupNameTaken):
		return apperror.ErrSavedLineupConflict
	default:
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, msg)
	}
}

func validateLineupName(name string) error {
	if err := validation.ValidateNonEmpty("lineup_name", name); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("lineup_name", name, 0, validation.MaxLineupNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

func validateLineupData(data string) error {
	if err := validation.ValidateLineup("lineup_data", data); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}
