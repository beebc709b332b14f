// Package config reads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is everything the server and historian read at startup.
type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`

	Postgres  Postgres
	Redis     Redis
	Auth      Auth
	Game      Game
	Historian Historian
}

// Postgres locates the user, invitation and match tables.
type Postgres struct {
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	Database string `env:"PG_DATABASE" envDefault:"pong"`
}

// DSN is the pgx connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", p.User, p.Password, p.Host, p.Port, p.Database)
}

type Redis struct {
	Addr         string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB           int    `env:"REDIS_DB" envDefault:"0"`
	HistoryQueue string `env:"HISTORIAN_QUEUE_NAME" envDefault:"pong_matches"`
	PresenceKey  string `env:"PRESENCE_KEY" envDefault:"pong_online"`
}

// Auth configures token verification. With no key paths an ephemeral key pair is
// generated at startup.
type Auth struct {
	PrivateKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`
	// TokenExpire is the lifetime of issued tokens; zero means tokens never expire.
	TokenExpire time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"0"`
}

// Game tunes rooms and matchmaking.
type Game struct {
	TickRate        int           `env:"GAME_TICK_RATE" envDefault:"60"`
	Countdown       int           `env:"GAME_COUNTDOWN" envDefault:"3"`
	DisconnectGrace time.Duration `env:"GAME_DISCONNECT_GRACE" envDefault:"30s"`
	QueueMaxWait    time.Duration `env:"GAME_QUEUE_MAX_WAIT" envDefault:"5m"`
	SweepInterval   time.Duration `env:"GAME_SWEEP_INTERVAL" envDefault:"15s"`
	StatsInterval   time.Duration `env:"GAME_STATS_INTERVAL" envDefault:"1m"`
}

// Historian tunes the match history writer.
type Historian struct {
	BatchSize     int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`
	PopTimeout    time.Duration `env:"HISTORIAN_POP_TIMEOUT" envDefault:"3s"`
	ErrorBackoff  time.Duration `env:"HISTORIAN_ERROR_BACKOFF" envDefault:"1s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Game.TickRate <= 0 {
		return Config{}, fmt.Errorf("GAME_TICK_RATE must be positive, got %d", cfg.Game.TickRate)
	}
	if cfg.Game.Countdown < 0 {
		return Config{}, fmt.Errorf("GAME_COUNTDOWN must not be negative, got %d", cfg.Game.Countdown)
	}
	return cfg, nil
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
