package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	ttl     time.Duration
	expired int
	err     error
}

func (f *fakeExpirer) Expire(ttl time.Duration) (int, error) {
	f.ttl = ttl
	return f.expired, f.err
}

type fakeRefresher struct {
	states []string
	err    error
	calls  int
}

func (f *fakeRefresher) RefreshStates(ctx context.Context) ([]string, error) {
	f.calls++
	return f.states, f.err
}

func TestExpireRunsJob(t *testing.T) {
	expirer := &fakeExpirer{expired: 3}
	job := NewExpireRunsJob(expirer, 72*time.Hour, zerolog.Nop())

	assert.Equal(t, "expire_runs", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 72*time.Hour, expirer.ttl)
}

func TestExpireRunsJobPropagatesError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db locked")}
	job := NewExpireRunsJob(expirer, time.Hour, zerolog.Nop())
	assert.Error(t, job.Run())
}

func TestRefreshStatesJob(t *testing.T) {
	refresher := &fakeRefresher{states: []string{"Kerala"}}
	job := NewRefreshStatesJob(refresher, zerolog.Nop())

	assert.Equal(t, "refresh_states", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 1, refresher.calls)
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	expirer := &fakeExpirer{expired: 1}
	job := NewExpireRunsJob(expirer, time.Hour, zerolog.Nop())

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, time.Hour, expirer.ttl)
}

func TestSchedulerAddJobBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", NewExpireRunsJob(&fakeExpirer{}, time.Hour, zerolog.Nop()))
	assert.Error(t, err)
}

func TestSchedulerStartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@hourly", NewExpireRunsJob(&fakeExpirer{}, time.Hour, zerolog.Nop())))
	s.Start()
	s.Stop()
}
