package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/pong/internal/models"
)

// Users reads accounts from the user service's table. Missing users come back as nil.
type Users struct {
	DB *pgxpool.Pool
}

const selectUser = `
	SELECT user_seq, user_id, nickname, COALESCE(avatar_url, '')
	FROM users
`

func (u *Users) FindByUserID(ctx context.Context, login string) (*models.User, error) {
	return u.findOne(ctx, selectUser+`WHERE user_id = $1`, login)
}

func (u *Users) FindByUserSeq(ctx context.Context, seq int64) (*models.User, error) {
	return u.findOne(ctx, selectUser+`WHERE user_seq = $1`, seq)
}

func (u *Users) findOne(ctx context.Context, q string, arg interface{}) (*models.User, error) {
	var user models.User
	err := u.DB.QueryRow(ctx, q, arg).Scan(&user.Seq, &user.Login, &user.Nickname, &user.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
