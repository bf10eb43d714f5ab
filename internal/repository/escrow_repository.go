package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/repository/common"
)

// ErrEscrowNotFound is returned when no escrow has the requested token.
var ErrEscrowNotFound = errors.New("lineup escrow not found")

const escrowColumns = `
	id, escrow_token, initiator_user_id, recipient_name, recipient_contact, contact_type,
	initiator_team_id, recipient_team_id, initiator_lineup, recipient_lineup, subject, message_body,
	status, created_at, initiator_submitted_at, recipient_submitted_at, expires_at`

// EscrowRepository persists lineup escrows and their view log.
type EscrowRepository struct {
	db *sqlx.DB
}

// NewEscrowRepository creates the repository.
func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create inserts the escrow and the initiator's audit entry in one transaction.
// CreatedAt and ExpiresAt must be set by the caller; ID is filled in.
func (r *EscrowRepository) Create(ctx context.Context, e *models.LineupEscrow) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO lineup_escrows (
				escrow_token, initiator_user_id, recipient_name, recipient_contact, contact_type,
				initiator_team_id, recipient_team_id, initiator_lineup, subject, message_body,
				status, created_at, initiator_submitted_at, expires_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $13)
			RETURNING id
		`

		if err := tx.QueryRowxContext(
			ctx, query,
			e.Token, e.InitiatorUserID, e.RecipientName, e.RecipientContact, e.ContactType,
			e.InitiatorTeamID, e.RecipientTeamID, e.InitiatorLineup, e.Subject, e.MessageBody,
			models.EscrowStatusPending, e.CreatedAt, e.ExpiresAt,
		).Scan(&e.ID); err != nil {
			return fmt.Errorf("escrow repository: create %w", err)
		}
		e.Status = models.EscrowStatusPending
		e.InitiatorSubmittedAt = e.CreatedAt

		details, err := json.Marshal(map[string]interface{}{
			"escrow_id":      e.ID,
			"recipient_name": e.RecipientName,
			"contact_type":   e.ContactType,
		})
		if err != nil {
			return fmt.Errorf("escrow repository: activity details %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_activity_logs (user_id, action_type, details, created_at) VALUES ($1, $2, $3, $4)`,
			e.InitiatorUserID, models.ActivityLineupEscrowCreated, string(details), e.CreatedAt,
		); err != nil {
			return fmt.Errorf("escrow repository: log activity %w", err)
		}

		return nil
	})
}

// GetByToken returns the escrow with the given token in whatever status it is.
func (r *EscrowRepository) GetByToken(ctx context.Context, token string) (*models.LineupEscrow, error) {
	var e models.LineupEscrow
	query := `SELECT ` + escrowColumns + ` FROM lineup_escrows WHERE escrow_token = $1`

	if err := r.db.GetContext(ctx, &e, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEscrowNotFound
		}
		return nil, fmt.Errorf("escrow repository: get by token %w", err)
	}

	return &e, nil
}

// MarkExpired moves a pending escrow to expired. It reports false when the
// row had already left pending.
func (r *EscrowRepository) MarkExpired(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lineup_escrows SET status = $2 WHERE id = $1 AND status = $3`,
		id, models.EscrowStatusExpired, models.EscrowStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("escrow repository: mark expired %w", err)
	}

	ok, err := common.Affected(res)
	if err != nil {
		return false, fmt.Errorf("escrow repository: mark expired %w", err)
	}
	return ok, nil
}

// SubmitRecipientLineup writes the recipient lineup once. Only a pending,
// unexpired row is updated; false means another request won or the row expired.
func (r *EscrowRepository) SubmitRecipientLineup(ctx context.Context, id int64, lineup string, at time.Time) (bool, error) {
	query := `
		UPDATE lineup_escrows
		SET recipient_lineup = $2, recipient_submitted_at = $3, status = $4
		WHERE id = $1 AND status = $5 AND expires_at > $3
	`

	res, err := r.db.ExecContext(ctx, query,
		id, lineup, at, models.EscrowStatusBothSubmitted, models.EscrowStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("escrow repository: submit recipient lineup %w", err)
	}

	ok, err := common.Affected(res)
	if err != nil {
		return false, fmt.Errorf("escrow repository: submit recipient lineup %w", err)
	}
	return ok, nil
}

// RecordView appends a row to the view log.
func (r *EscrowRepository) RecordView(ctx context.Context, escrowID int64, viewerContact string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO lineup_escrow_views (escrow_id, viewer_contact, viewed_at) VALUES ($1, $2, $3)`,
		escrowID, viewerContact, at,
	); err != nil {
		return fmt.Errorf("escrow repository: record view %w", err)
	}

	return nil
}

// ExpireOverdue expires every pending escrow whose deadline is at or before now.
func (r *EscrowRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lineup_escrows SET status = $1 WHERE status = $2 AND expires_at <= $3`,
		models.EscrowStatusExpired, models.EscrowStatusPending, now,
	)
	if err != nil {
		return 0, fmt.Errorf("escrow repository: expire overdue %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("escrow repository: expire overdue rows affected %w", err)
	}
	return n, nil
}

// ListByInitiator returns escrows created by userID, newest first.
func (r *EscrowRepository) ListByInitiator(ctx context.Context, userID int64, limit int) ([]models.LineupEscrow, error) {
	query := `SELECT ` + escrowColumns + `
		FROM lineup_escrows
		WHERE initiator_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var escrows []models.LineupEscrow
	if err := r.db.SelectContext(ctx, &escrows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("escrow repository: list by initiator %w", err)
	}

	return escrows, nil
}
