// Package historian drains finished match summaries from the Redis queue and writes
// them to Postgres in batches.
package historian

import (
	"context"
	"time"

	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/models"
	"github.com/sirupsen/logrus"
)

// Source yields queued summaries. Pop returns (nil, nil) when nothing arrived in time.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*models.MatchSummary, error)
}

// Sink persists a batch atomically.
type Sink interface {
	SaveBatch(ctx context.Context, batch []models.MatchSummary) error
}

// maxPending bounds the in-memory backlog kept while the database is failing.
const maxPending = 10000

type Service struct {
	src    Source
	sink   Sink
	cfg    config.Historian
	logger *logrus.Logger

	batch []models.MatchSummary
}

func New(src Source, sink Sink, cfg config.Historian, logger *logrus.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Service{
		src:    src,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		batch:  make([]models.MatchSummary, 0, cfg.BatchSize),
	}
}

// Run pops summaries until ctx is cancelled, flushing whenever the batch fills or the
// flush interval passes. Whatever is still batched is flushed once more on exit.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			return ctx.Err()

		case <-ticker.C:
			s.flush(ctx)

		default:
			summary, err := s.src.Pop(ctx, s.cfg.PopTimeout)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.WithError(err).Error("pop match summary")
				// Back off so an unreachable Redis does not spin the loop.
				select {
				case <-ctx.Done():
				case <-time.After(s.cfg.ErrorBackoff):
				}
				continue
			}
			if summary == nil {
				continue
			}
			s.batch = append(s.batch, *summary)
			if len(s.batch) >= s.cfg.BatchSize {
				s.flush(ctx)
			}
		}
	}
}

// flush writes the current batch. A failed batch is kept for the next attempt.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.sink.SaveBatch(flushCtx, s.batch); err != nil {
		s.logger.WithError(err).WithField("pending", len(s.batch)).Error("flush match summaries")
		if len(s.batch) > maxPending {
			dropped := len(s.batch) - maxPending
			s.batch = append(s.batch[:0], s.batch[dropped:]...)
			s.logger.WithField("dropped", dropped).Warn("match summary backlog full, dropping oldest")
		}
		return
	}
	s.logger.WithField("count", len(s.batch)).Debug("flushed match summaries")
	s.batch = s.batch[:0]
}
