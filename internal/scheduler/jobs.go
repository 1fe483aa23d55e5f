package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunExpirer deletes runs older than a TTL
type RunExpirer interface {
	Expire(ttl time.Duration) (int, error)
}

// ExpireRunsJob removes old runs and their map files
type ExpireRunsJob struct {
	expirer RunExpirer
	ttl     time.Duration
	log     zerolog.Logger
}

// NewExpireRunsJob creates the run expiry job
func NewExpireRunsJob(expirer RunExpirer, ttl time.Duration, log zerolog.Logger) *ExpireRunsJob {
	return &ExpireRunsJob{
		expirer: expirer,
		ttl:     ttl,
		log:     log.With().Str("job", "expire_runs").Logger(),
	}
}

// Name implements Job
func (j *ExpireRunsJob) Name() string { return "expire_runs" }

// Run implements Job
func (j *ExpireRunsJob) Run() error {
	n, err := j.expirer.Expire(j.ttl)
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info().Int("expired", n).Msg("expired old runs")
	}
	return nil
}

// StateRefresher re-reads the state catalog from the shapefile store
type StateRefresher interface {
	RefreshStates(ctx context.Context) ([]string, error)
}

// RefreshStatesJob keeps the cached state list current so requests after a
// bucket update don't serve a stale catalog.
type RefreshStatesJob struct {
	refresher StateRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewRefreshStatesJob creates the state refresh job
func NewRefreshStatesJob(refresher StateRefresher, log zerolog.Logger) *RefreshStatesJob {
	return &RefreshStatesJob{
		refresher: refresher,
		timeout:   2 * time.Minute,
		log:       log.With().Str("job", "refresh_states").Logger(),
	}
}

// Name implements Job
func (j *RefreshStatesJob) Name() string { return "refresh_states" }

// Run implements Job
func (j *RefreshStatesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	states, err := j.refresher.RefreshStates(ctx)
	if err != nil {
		return err
	}
	j.log.Debug().Int("states", len(states)).Msg("state list refreshed")
	return nil
}
