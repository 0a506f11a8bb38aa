package scheduler

import (
	"context"
	"fmt"
	"strings"
)

// Schtasks registers a Windows scheduled task.
type Schtasks struct {
	Run Runner
}

func taskCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
	}
	return strings.Join(quoted, " ")
}

func (s *Schtasks) Register(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	_, err := s.Run.Run(ctx, nil, "schtasks",
		"/create",
		"/tn", job.Name,
		"/tr", taskCommand(job.Command),
		"/sc", "daily",
		"/st", fmt.Sprintf("%02d:%02d", job.Hour, job.Minute),
		"/f",
	)
	if err != nil {
		return fmt.Errorf("schtasks: %w", err)
	}
	return nil
}

func (s *Schtasks) Describe(job Job) string {
	return fmt.Sprintf("Task Scheduler: %s daily at %02d:%02d", job.Name, job.Hour, job.Minute)
}
