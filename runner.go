package hyrcania

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner starts external programs (the container runtime, its compose tool, git)
type Runner interface {
	// LookPath finds an executable on $PATH
	LookPath(file string) (string, error)

	// Run executes a program with the terminal's streams attached and waits for it
	Run(ctx context.Context, name string, args ...string) error

	// Quiet executes a program with its output discarded, only the exit status matters
	Quiet(ctx context.Context, name string, args ...string) error

	// Output executes a program and returns its trimmed standard output
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the Runner backed by os/exec
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner attached to the process's own standard streams
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logrus.Debugf("(RUN) %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = r.Stderr
	cmd.Stdout = r.Stdout
	cmd.Stdin = r.Stdin
	return cmd.Run()
}

func (r *ExecRunner) Quiet(ctx context.Context, name string, args ...string) error {
	logrus.Debugf("(QUIET) %s %s", name, strings.Join(args, " "))
	return exec.CommandContext(ctx, name, args...).Run()
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	logrus.Debugf("(OUTPUT) %s %s", name, strings.Join(args, " "))

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
