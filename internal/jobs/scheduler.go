// Package jobs runs the server's periodic maintenance: expiring stale queue entries
// and logging room statistics.
package jobs

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/sirupsen/logrus"
)

// Maintainer is the part of the game service the jobs drive.
type Maintainer interface {
	ExpireQueue(maxWait time.Duration) int
	Stats() game.Stats
}

type Scheduler struct {
	sched  gocron.Scheduler
	logger *logrus.Logger
}

// New registers the maintenance jobs. Nothing runs until Start.
func New(svc Maintainer, cfg config.Game, logger *logrus.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{sched: sched, logger: logger}

	if cfg.QueueMaxWait > 0 && cfg.SweepInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.SweepInterval),
			gocron.NewTask(func() {
				if n := svc.ExpireQueue(cfg.QueueMaxWait); n > 0 {
					logger.WithField("expired", n).Debug("[Scheduler] queue sweep")
				}
			}),
			gocron.WithName("queue-expiry"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register queue expiry job: %w", err)
		}
	}

	if cfg.StatsInterval > 0 {
		_, err = sched.NewJob(
			gocron.DurationJob(cfg.StatsInterval),
			gocron.NewTask(func() {
				st := svc.Stats()
				logger.WithFields(logrus.Fields{
					"rooms":        st.Rooms,
					"running":      st.Running,
					"queued":       st.Queued,
					"queuedRanked": st.QueuedRanked,
				}).Info("[Scheduler] game stats")
			}),
			gocron.WithName("room-stats"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register stats job: %w", err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.sched.Jobs())
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
