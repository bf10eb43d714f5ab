package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/repository/common"
)

var (
	// ErrSavedLineupNotFound covers both absent rows and rows owned by someone else.
	ErrSavedLineupNotFound = errors.New("saved lineup not found")
	// ErrSavedLineupNameTaken is returned when a rename collides with another active lineup.
	ErrSavedLineupNameTaken = errors.New("saved lineup name already used")
)

const savedLineupColumns = `id, user_id, team_id, lineup_name, lineup_data, is_active, created_at, updated_at`

// SavedLineupRepository works with the saved_lineups table. Every query is
// scoped by user_id.
type SavedLineupRepository struct {
	db *sqlx.DB
}

func NewSavedLineupRepository(db *sqlx.DB) *SavedLineupRepository {
	return &SavedLineupRepository{db: db}
}

// Upsert saves l, replacing the data of an active lineup with the same
// user, team and name. It reports whether a new row was inserted.
func (r *SavedLineupRepository) Upsert(ctx context.Context, l *models.SavedLineup) (bool, error) {
	query := `
		INSERT INTO saved_lineups (user_id, team_id, lineup_name, lineup_data, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (user_id, team_id, lineup_name) WHERE is_active
		DO UPDATE SET lineup_data = EXCLUDED.lineup_data, updated_at = NOW()
		RETURNING id, is_active, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	if err := r.db.QueryRowxContext(ctx, query,
		l.UserID, l.TeamID, l.LineupName, l.LineupData,
	).Scan(&l.ID, &l.IsActive, &l.CreatedAt, &l.UpdatedAt, &inserted); err != nil {
		return false, fmt.Errorf("saved lineup repository: upsert %w", err)
	}

	return inserted, nil
}

// ListActive returns the user's active lineups, optionally for one team,
// most recently updated first.
func (r *SavedLineupRepository) ListActive(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error) {
	query := `SELECT ` + savedLineupColumns + `
		FROM saved_lineups
		WHERE user_id = $1 AND is_active AND ($2::BIGINT IS NULL OR team_id = $2)
		ORDER BY updated_at DESC`

	lineups := []models.SavedLineup{}
	if err := r.db.SelectContext(ctx, &lineups, query, userID, teamID); err != nil {
		return nil, fmt.Errorf("saved lineup repository: list active %w", err)
	}

	return lineups, nil
}

// GetOwned returns an active lineup owned by userID.
func (r *SavedLineupRepository) GetOwned(ctx context.Context, id, userID int64) (*models.SavedLineup, error) {
	var l models.SavedLineup
	query := `SELECT ` + savedLineupColumns + ` FROM saved_lineups WHERE id = $1 AND user_id = $2 AND is_active`

	if err := r.db.GetContext(ctx, &l, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSavedLineupNotFound
		}
		return nil, fmt.Errorf("saved lineup repository: get owned %w", err)
	}

	return &l, nil
}

// UpdateOwned changes the name and/or data of an active lineup owned by userID.
// Nil fields are left untouched.
func (r *SavedLineupRepository) UpdateOwned(ctx context.Context, id, userID int64, name, data *string) (*models.SavedLineup, error) {
	query := `
		UPDATE saved_lineups
		SET lineup_name = COALESCE($3, lineup_name),
			lineup_data = COALESCE($4, lineup_data),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING ` + savedLineupColumns

	var l models.SavedLineup
	if err := r.db.QueryRowxContext(ctx, query, id, userID, name, data).StructScan(&l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSavedLineupNotFound
		}
		if common.IsUniqueViolation(err) {
			return nil, ErrSavedLineupNameTaken
		}
		return nil, fmt.Errorf("saved lineup repository: update owned %w", err)
	}

	return &l, nil
}

// SoftDeleteOwned deactivates an active lineup owned by userID.
func (r *SavedLineupRepository) SoftDeleteOwned(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE saved_lineups SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_active`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("saved lineup repository: soft delete %w", err)
	}

	ok, err := common.Affected(res)
	if err != nil {
		return fmt.Errorf("saved lineup repository: soft delete %w", err)
	}
	if !ok {
		return ErrSavedLineupNotFound
	}

	return nil
}
