package dto

import (
	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/service"
)

// ErrorResponse is the failure shape of the escrow and saved-lineup endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewErrorResponse builds a failure body.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: message}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User   *models.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// CreateEscrowResponse is returned to the initiating captain.
type CreateEscrowResponse struct {
	Success bool `json:"success"`
	*service.CreateEscrowResult
}

// SubmitLineupResponse is returned after the recipient submits.
type SubmitLineupResponse struct {
	Success bool `json:"success"`
	*service.SubmitResult
}

// EscrowViewResponse is the disclosed escrow.
type EscrowViewResponse struct {
	Success            bool                   `json:"success"`
	EscrowData         *service.EscrowDetails `json:"escrow_data"`
	BothLineupsVisible bool                   `json:"both_lineups_visible"`
}

// MyEscrowsResponse lists escrows created by the caller.
type MyEscrowsResponse struct {
	Success bool                    `json:"success"`
	Escrows []service.EscrowSummary `json:"escrows"`
}

// SavedLineupResponse wraps one saved lineup.
type SavedLineupResponse struct {
	Success bool                `json:"success"`
	Lineup  *models.SavedLineup `json:"lineup"`
	Created *bool               `json:"created,omitempty"`
}

// SavedLineupsResponse wraps the caller's saved lineups.
type SavedLineupsResponse struct {
	Success bool                 `json:"success"`
	Lineups []models.SavedLineup `json:"lineups"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
