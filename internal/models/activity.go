package models

import (
	"encoding/json"
	"time"
)

// ActivityLog is an audit-trail row for a user action.
type ActivityLog struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	ActionType string          `db:"action_type" json:"action_type"`
	Details    json.RawMessage `db:"details" json:"details"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

const (
	ActivityLineupEscrowCreated = "lineup_escrow_created"
)
