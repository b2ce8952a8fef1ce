// Package autostart registers levelsync as a Windows scheduled task that runs
// at logon.
package autostart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/zoobzio/levelsync"
)

// DefaultTaskName is the scheduled task name.
const DefaultTaskName = "levelsync"

// logonDelay is the schtasks /DELAY value (mmmm:ss) applied after logon.
const logonDelay = "0000:05"

// Runner executes a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if runtime.GOOS != "windows" {
		return nil, levelsync.ErrUnsupported
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Scheduler manages the logon task.
type Scheduler struct {
	Name   string
	Runner Runner
}

// New returns a Scheduler for DefaultTaskName using ExecRunner.
func New() *Scheduler {
	return &Scheduler{Name: DefaultTaskName, Runner: ExecRunner{}}
}

// Enable creates or replaces the task so that command runs at logon with
// highest privileges, five seconds after the user logs in.
func (s *Scheduler) Enable(ctx context.Context, command string) error {
	if command == "" {
		return errors.New("autostart: empty command")
	}
	_, err := s.run(ctx, "/Create",
		"/TN", s.Name,
		"/TR", command,
		"/SC", "ONLOGON",
		"/RL", "HIGHEST",
		"/DELAY", logonDelay,
		"/F",
	)
	return err
}

// Disable removes the task.
func (s *Scheduler) Disable(ctx context.Context) error {
	_, err := s.run(ctx, "/Delete", "/TN", s.Name, "/F")
	return err
}

// Enabled reports whether the task exists. A query failure other than a
// missing task is returned as an error.
func (s *Scheduler) Enabled(ctx context.Context) (bool, error) {
	out, err := s.run(ctx, "/Query", "/TN", s.Name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, levelsync.ErrUnsupported) {
		return false, err
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) || len(out) > 0 {
		return false, nil
	}
	return false, err
}

func (s *Scheduler) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := s.Runner.Run(ctx, "schtasks", args...)
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return out, fmt.Errorf("schtasks %s: %w: %s", args[0], err, msg)
		}
		return out, fmt.Errorf("schtasks %s: %w", args[0], err)
	}
	return out, nil
}

// Command quotes an executable path and its arguments for /TR.
func Command(exe string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, `"`+exe+`"`)
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
