package scheduler

import (
	"context"
	"fmt"
	"strings"
)

// Cron edits the user's crontab. Each job line ends with a "# <name>" marker
// so a later registration replaces it.
type Cron struct {
	Run Runner
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func cronLine(job Job) string {
	quoted := make([]string, len(job.Command))
	for i, a := range job.Command {
		quoted[i] = shellQuote(a)
	}
	return fmt.Sprintf("%d %d * * * %s # %s", job.Minute, job.Hour, strings.Join(quoted, " "), job.Name)
}

func (c *Cron) Register(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	current, err := c.Run.Run(ctx, nil, "crontab", "-l")
	if err != nil {
		// anything but "no crontab for <user>" would lose the existing table
		if !strings.Contains(strings.ToLower(err.Error()), "no crontab") {
			return fmt.Errorf("read crontab: %w", err)
		}
		current = nil
	}

	marker := " # " + job.Name
	var lines []string
	for _, l := range strings.Split(string(current), "\n") {
		if strings.TrimSpace(l) == "" || strings.HasSuffix(l, marker) {
			continue
		}
		lines = append(lines, l)
	}
	lines = append(lines, cronLine(job))

	table := strings.Join(lines, "\n") + "\n"
	if _, err := c.Run.Run(ctx, []byte(table), "crontab", "-"); err != nil {
		return fmt.Errorf("install crontab: %w", err)
	}
	return nil
}

func (c *Cron) Describe(job Job) string {
	return fmt.Sprintf("cron: daily at %02d:%02d (%s)", job.Hour, job.Minute, cronLine(job))
}
