package job

import (
	"context"
	"time"

	"go.uber.org/zap"

	"buildbid/internal/metrics"
)

// StaleTokenStore removes push tokens that have not been refreshed.
type StaleTokenStore interface {
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// PushTokenCleanupJob prunes device tokens whose owners stopped re-registering them.
type PushTokenCleanupJob struct {
	store   StaleTokenStore
	maxAge  time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewPushTokenCleanupJob(store StaleTokenStore, maxAgeDays int, m *metrics.Metrics, logger *zap.Logger) *PushTokenCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &PushTokenCleanupJob{
		store:   store,
		maxAge:  time.Duration(maxAgeDays) * 24 * time.Hour,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (j *PushTokenCleanupJob) Name() string { return "push_token_cleanup" }

// Run executes the cleanup job
func (j *PushTokenCleanupJob) Run() {
	ctx := context.Background()
	cutoff := j.now().Add(-j.maxAge)

	j.logger.Info("Starting push token cleanup", zap.Time("cutoff", cutoff))

	removed, err := j.store.DeleteStale(ctx, cutoff)
	j.metrics.RecordJobRun(j.Name(), err)
	if err != nil {
		j.logger.Error("Failed to delete stale push tokens", zap.Error(err))
		return
	}

	j.logger.Info("Push token cleanup completed", zap.Int64("removed", removed))
}
