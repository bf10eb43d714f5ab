package models

import "time"

// Team is a league team; escrows reference it for display only.
type Team struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	LeagueName *string   `db:"league_name" json:"league_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
