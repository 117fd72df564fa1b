package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"buildbid/internal/metrics"
	"buildbid/internal/model"
)

type DueProjectFinder interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]model.Project, error)
	MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind model.NotificationType, title, message string, data map[string]string) (*model.Notification, error)
}

// DeadlineReminderJob warns contractors about open projects due within the window.
// A project is reminded once per deadline; the finder only returns projects not yet marked.
type DeadlineReminderJob struct {
	projects DueProjectFinder
	notifier Notifier
	window   time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewDeadlineReminderJob(projects DueProjectFinder, notifier Notifier, window time.Duration, m *metrics.Metrics, logger *zap.Logger) *DeadlineReminderJob {
	if window <= 0 {
		window = 48 * time.Hour
	}
	return &DeadlineReminderJob{
		projects: projects,
		notifier: notifier,
		window:   window,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

func (j *DeadlineReminderJob) Name() string { return "deadline_reminder" }

func (j *DeadlineReminderJob) Run() {
	ctx := context.Background()
	now := j.now().UTC()
	due, err := j.projects.DueBetween(ctx, now, now.Add(j.window))
	j.metrics.RecordJobRun(j.Name(), err)
	if err != nil {
		j.logger.Error("Failed to find projects near deadline", zap.Error(err))
		return
	}

	sent := 0
	for _, p := range due {
		if p.ContractorID == nil {
			continue
		}
		msg := fmt.Sprintf("%s is due %s", p.Name, p.Deadline.UTC().Format("Jan 2 15:04 MST"))
		_, err := j.notifier.Notify(ctx, *p.ContractorID, model.NotificationDeadlineSoon, "Deadline approaching", msg,
			map[string]string{"project_id": p.ID.String()})
		if err != nil {
			j.logger.Warn("Failed to send deadline reminder",
				zap.String("project_id", p.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if err := j.projects.MarkReminded(ctx, p.ID, now); err != nil {
			j.logger.Warn("Failed to mark deadline reminder",
				zap.String("project_id", p.ID.String()),
				zap.Error(err),
			)
		}
		sent++
	}

	j.logger.Info("Deadline reminders sent",
		zap.Int("due", len(due)),
		zap.Int("sent", sent),
	)
}
