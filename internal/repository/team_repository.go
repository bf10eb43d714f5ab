package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/repository/common"
)

// ErrTeamNotFound is returned when a team id does not exist.
var ErrTeamNotFound = errors.New("team not found")

// TeamRepository reads the teams table.
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetByID returns one team.
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	team, err := common.GetByField[models.Team](ctx, r.db, "teams", "id", id, ErrTeamNotFound)
	if err != nil && !errors.Is(err, ErrTeamNotFound) {
		return nil, fmt.Errorf("team repository: %w", err)
	}
	return team, err
}

// GetByIDs returns the teams that exist among ids, in no particular order.
func (r *TeamRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var teams []models.Team
	query := `SELECT id, name, league_name, created_at FROM teams WHERE id = ANY($1)`
	if err := r.db.SelectContext(ctx, &teams, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("team repository: get by ids %w", err)
	}

	return teams, nil
}
