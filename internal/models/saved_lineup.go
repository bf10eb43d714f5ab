package models

import "time"

// SavedLineup is a named lineup a captain keeps for one of their teams.
type SavedLineup struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	TeamID     int64     `db:"team_id" json:"team_id"`
	LineupName string    `db:"lineup_name" json:"lineup_name"`
	LineupData string    `db:"lineup_data" json:"lineup_data"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
