package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/pong/internal/models"
)

// Invitations reads game invites from the alarms table. Missing invitations come back as nil.
type Invitations struct {
	DB *pgxpool.Pool
}

// GetInvitationByID loads a game invite alarm that has not been accepted yet.
func (i *Invitations) GetInvitationByID(ctx context.Context, id int64) (*models.Invitation, error) {
	q := `
		SELECT alarm_seq, sender_seq, receiver_seq
		FROM alarms
		WHERE alarm_seq = $1 AND alarm_type = 'game_invite' AND is_read = FALSE
	`
	var inv models.Invitation
	err := i.DB.QueryRow(ctx, q, id).Scan(&inv.ID, &inv.SenderSeq, &inv.ReceiverSeq)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invitation %d: %w", id, err)
	}
	return &inv, nil
}

// MarkAccepted flags the invite alarm as read; GetInvitationByID no longer returns it.
func (i *Invitations) MarkAccepted(ctx context.Context, id int64) error {
	q := `
		UPDATE alarms
		SET is_read = TRUE, updated_at = NOW()
		WHERE alarm_seq = $1
	`
	if _, err := i.DB.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark invitation %d accepted: %w", id, err)
	}
	return nil
}
