package dto

import "encoding/json"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateEscrowRequest is sent by the initiating captain.
type CreateEscrowRequest struct {
	RecipientName    string `json:"recipient_name"`
	RecipientContact string `json:"recipient_contact"`
	ContactType      string `json:"contact_type"`
	InitiatorLineup  string `json:"initiator_lineup"`
	Subject          string `json:"subject"`
	MessageBody      string `json:"message_body"`
	InitiatorTeamID  *int64 `json:"initiator_team_id"`
	RecipientTeamID  *int64 `json:"recipient_team_id"`
	ExpiresInHours   *int   `json:"expires_in_hours"`
}

// SubmitLineupRequest is sent by the recipient from the opposing page.
type SubmitLineupRequest struct {
	EscrowToken      string `json:"escrow_token"`
	RecipientContact string `json:"recipient_contact"`
	RecipientLineup  string `json:"recipient_lineup"`
}

// SaveLineupRequest creates or overwrites a named lineup. LineupData may be
// a JSON string or any JSON value, which is then stored verbatim.
type SaveLineupRequest struct {
	TeamID     int64           `json:"team_id"`
	LineupName string          `json:"lineup_name"`
	LineupData json.RawMessage `json:"lineup_data"`
}

// UpdateSavedLineupRequest changes the name and/or the data of a lineup.
// LineupID is read when the id is not part of the path.
type UpdateSavedLineupRequest struct {
	LineupID   *int64          `json:"lineup_id"`
	LineupName *string         `json:"lineup_name"`
	LineupData json.RawMessage `json:"lineup_data"`
}

// DeleteSavedLineupRequest is the optional body of DELETE /api/saved-lineups.
type DeleteSavedLineupRequest struct {
	LineupID *int64 `json:"lineup_id"`
}

// LineupDataText turns a raw lineup_data value into the stored text form.
// ok is false when the field was absent or null.
func LineupDataText(raw json.RawMessage) (text string, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}
