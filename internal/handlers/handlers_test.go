package handlers

import (
	"context"
	"sync"
	"testing"

	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/jason-s-yu/pong/internal/matchmaking"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/jason-s-yu/pong/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct{}

func (fakeUsers) FindByUserID(context.Context, string) (*models.User, error) { return nil, nil }

func (fakeUsers) FindByUserSeq(_ context.Context, seq int64) (*models.User, error) {
	if seq > 100 {
		return nil, nil
	}
	return &models.User{Seq: seq}, nil
}

type fakeInvitations struct {
	mu       sync.Mutex
	invites  map[int64]*models.Invitation
	accepted []int64
}

func (f *fakeInvitations) GetInvitationByID(_ context.Context, id int64) (*models.Invitation, error) {
	return f.invites[id], nil
}

func (f *fakeInvitations) MarkAccepted(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, id)
	return nil
}

type fixture struct {
	svc         *game.Service
	hub         *Hub
	invitations *fakeInvitations
	logger      *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require.NoError(t, auth.Init(config.Auth{}))

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	hub := NewHub(session.NewRegistry(), nil, logger)
	invitations := &fakeInvitations{invites: map[int64]*models.Invitation{
		7: {ID: 7, SenderSeq: 1, ReceiverSeq: 2},
		8: {ID: 8, SenderSeq: 1, ReceiverSeq: 500},
	}}
	svc := game.NewService(game.Options{
		Queue:           matchmaking.NewQueue(),
		Engine:          game.NewEngine(game.EngineConfig{TickRate: 60, Countdown: 5}, nil, logger),
		Publisher:       hub,
		Users:           fakeUsers{},
		Invitations:     invitations,
		Logger:          logger,
		DisconnectGrace: 0,
	})
	t.Cleanup(svc.Shutdown)
	return &fixture{svc: svc, hub: hub, invitations: invitations, logger: logger}
}

func tokenFor(t *testing.T, userSeq int64) string {
	t.Helper()
	token, err := auth.CreateJWT(userSeq)
	require.NoError(t, err)
	return token
}
