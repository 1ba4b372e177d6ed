package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSpec is how often the janitor sweeps in-memory state.
const DefaultSpec = "@every 1m"

// Job is a named maintenance task. Run returns the number of entries it removed.
type Job struct {
	Name string
	Run  func() int
}

// Janitor runs Jobs on a cron schedule. Jobs never overlap with themselves.
type Janitor struct {
	c    *cron.Cron
	jobs []Job
}

// New registers every job under spec. An empty spec uses DefaultSpec.
func New(spec string, jobs ...Job) (*Janitor, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	j := &Janitor{c: c, jobs: jobs}

	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(spec, func() { j.run(job) }); err != nil {
			return nil, err
		}
		slog.Debug("scheduler: registered job", "job", job.Name, "spec", spec)
	}
	return j, nil
}

func (j *Janitor) run(job Job) {
	if n := job.Run(); n > 0 {
		slog.Info("scheduler: job removed entries", "job", job.Name, "removed", n)
	}
}

// RunOnce runs every job immediately, in registration order.
func (j *Janitor) RunOnce() {
	for _, job := range j.jobs {
		j.run(job)
	}
}

func (j *Janitor) Start() {
	j.c.Start()
}

// Stop halts the schedule and waits for running jobs, or for ctx to end.
func (j *Janitor) Stop(ctx context.Context) error {
	done := j.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
