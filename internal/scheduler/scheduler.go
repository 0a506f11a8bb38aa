// Package scheduler installs the daily unattended run with the operating
// system's own scheduler.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Job is a daily invocation at Hour:Minute local time.
type Job struct {
	// Name identifies the job to the scheduler so re-registering replaces
	// it rather than adding a second entry.
	Name string
	// Command is the argv to run; Command[0] is the executable.
	Command []string
	Hour    int
	Minute  int
}

func (j Job) validate() error {
	if j.Name == "" {
		return errors.New("job name is empty")
	}
	if len(j.Command) == 0 || j.Command[0] == "" {
		return errors.New("job command is empty")
	}
	if j.Hour < 0 || j.Hour > 23 || j.Minute < 0 || j.Minute > 59 {
		return fmt.Errorf("invalid time %02d:%02d", j.Hour, j.Minute)
	}
	return nil
}

// Registrar installs a Job.
type Registrar interface {
	Register(ctx context.Context, job Job) error
	// Describe says where the job ended up, for the user.
	Describe(job Job) string
}

// Defaults used by setup.
const (
	DefaultJobName = "TJUEcardAutoQuery"
	LaunchdLabel   = "com.tjuecard.automatic"
)

// ForPlatform picks the registrar for goos (a runtime.GOOS value).
func ForPlatform(goos string, run Runner) (Registrar, error) {
	if run == nil {
		run = ExecRunner{}
	}
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return &Cron{Run: run}, nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("launchd: %w", err)
		}
		return &Launchd{Run: run, Dir: filepath.Join(home, "Library", "LaunchAgents"), Label: LaunchdLabel}, nil
	case "windows":
		return &Schtasks{Run: run}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
}
