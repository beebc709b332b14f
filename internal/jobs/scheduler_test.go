package jobs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason-s-yu/pong/internal/config"
	"github.com/jason-s-yu/pong/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaintainer struct {
	sweeps  atomic.Int32
	stats   atomic.Int32
	maxWait atomic.Int64
}

func (f *fakeMaintainer) ExpireQueue(maxWait time.Duration) int {
	f.sweeps.Add(1)
	f.maxWait.Store(int64(maxWait))
	return 1
}

func (f *fakeMaintainer) Stats() game.Stats {
	f.stats.Add(1)
	return game.Stats{Rooms: 1}
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestSchedulerRunsJobs(t *testing.T) {
	m := &fakeMaintainer{}
	s, err := New(m, config.Game{
		QueueMaxWait:  time.Minute,
		SweepInterval: 10 * time.Millisecond,
		StatsInterval: 10 * time.Millisecond,
	}, quiet())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	require.Eventually(t, func() bool { return m.sweeps.Load() > 0 && m.stats.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(time.Minute), m.maxWait.Load())
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	s, err := New(&fakeMaintainer{}, config.Game{}, quiet())
	require.NoError(t, err)
	assert.Zero(t, s.Jobs())
	s.Start()
	require.NoError(t, s.Shutdown())
}
