package models

import "time"

// LineupEscrow is one bilateral lineup exchange between opposing captains.
type LineupEscrow struct {
	ID                   int64        `db:"id" json:"id"`
	Token                string       `db:"escrow_token" json:"-"`
	InitiatorUserID      int64        `db:"initiator_user_id" json:"initiator_user_id"`
	RecipientName        string       `db:"recipient_name" json:"recipient_name"`
	RecipientContact     string       `db:"recipient_contact" json:"recipient_contact"`
	ContactType          ContactType  `db:"contact_type" json:"contact_type"`
	InitiatorTeamID      *int64       `db:"initiator_team_id" json:"initiator_team_id,omitempty"`
	RecipientTeamID      *int64       `db:"recipient_team_id" json:"recipient_team_id,omitempty"`
	InitiatorLineup      string       `db:"initiator_lineup" json:"initiator_lineup"`
	RecipientLineup      *string      `db:"recipient_lineup" json:"recipient_lineup"`
	Subject              string       `db:"subject" json:"subject"`
	MessageBody          string       `db:"message_body" json:"message_body"`
	Status               EscrowStatus `db:"status" json:"status"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	InitiatorSubmittedAt time.Time    `db:"initiator_submitted_at" json:"initiator_submitted_at"`
	RecipientSubmittedAt *time.Time   `db:"recipient_submitted_at" json:"recipient_submitted_at,omitempty"`
	ExpiresAt            time.Time    `db:"expires_at" json:"expires_at"`
}

// IsOverdue reports whether a pending escrow has passed its deadline at now.
func (e *LineupEscrow) IsOverdue(now time.Time) bool {
	return e.Status.CanTransitionTo(EscrowStatusExpired) && !now.Before(e.ExpiresAt)
}
