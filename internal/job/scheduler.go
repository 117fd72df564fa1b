package job

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work.
type Job interface {
	cron.Job
	Name() string
}

// Scheduler runs jobs on cron specs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger,
	}
}

// Add schedules j with a spec such as "@daily" or "0 * * * *".
func (s *Scheduler) Add(spec string, j Job) error {
	id, err := s.cron.AddJob(spec, j)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", j.Name(), err)
	}
	s.logger.Info("Job scheduled",
		zap.String("job", j.Name()),
		zap.String("spec", spec),
		zap.Int("entry_id", int(id)),
	)
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
