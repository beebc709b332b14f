package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jason-s-yu/pong/internal/auth"
	"github.com/jason-s-yu/pong/internal/cache"
	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/database"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/jason-s-yu/pong/internal/handlers"
	"github.com/jason-s-yu/pong/internal/jobs"
	"github.com/jason-s-yu/pong/internal/matchmaking"
	"github.com/jason-s-yu/pong/internal/middleware"
	"github.com/jason-s-yu/pong/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := auth.Init(cfg.Auth); err != nil {
		return err
	}

	pool, err := database.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	presence := cache.NewPresence(rdb, cfg.Redis.PresenceKey)
	if err := presence.Reset(ctx); err != nil {
		logger.WithError(err).Warn("failed to reset presence set")
	}
	hub := handlers.NewHub(session.NewRegistry(), presence, logger)

	engine := game.NewEngine(game.EngineConfig{
		Arena:     game.DefaultArena,
		TickRate:  cfg.Game.TickRate,
		Countdown: cfg.Game.Countdown,
	}, cache.NewHistoryQueue(rdb, cfg.Redis.HistoryQueue), logger)

	invitations := &database.Invitations{DB: pool}
	svc := game.NewService(game.Options{
		Queue:           matchmaking.NewQueue(),
		Engine:          engine,
		Publisher:       hub,
		Users:           &database.Users{DB: pool},
		Invitations:     invitations,
		Logger:          logger,
		DisconnectGrace: cfg.Game.DisconnectGrace,
	})
	defer svc.Shutdown()

	sched, err := jobs.New(svc, cfg.Game, logger)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			logger.WithError(err).Warn("scheduler shutdown")
		}
	}()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Get("/healthz", handlers.HealthHandler(svc, hub))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Recover(logger))
		r.Use(middleware.LogMiddleware(logger))

		r.Get("/game/ws", handlers.GameWSHandler(logger, svc, hub, cfg.AllowedOrigins))
		r.Post("/game/invite/{id}/accept", handlers.AcceptInviteHandler(logger, svc, invitations))
		r.Get("/game/current", handlers.CurrentGameHandler(svc))
		r.Get("/game/history", handlers.HistoryHandler(logger, &database.Matches{DB: pool}))
		r.Get("/game/rating", handlers.RatingHandler(logger, &database.Ratings{DB: pool}))
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
