package hyrcania

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

const legacyComposeCommand = "docker-compose"

var (
	ErrRuntimeNotFound   = errors.New("container runtime executable not found in $PATH")
	ErrDaemonUnreachable = errors.New("container runtime daemon is not reachable, is it running?")
	ErrComposeNotFound   = errors.New("no compose tool found, install the compose plugin or docker-compose")
)

// ComposeTool is the compose invocation form chosen during preflight
type ComposeTool struct {
	Command string
	Args    []string
}

// Invocation returns the program and full argument list for a compose subcommand
func (c ComposeTool) Invocation(args ...string) (string, []string) {
	full := make([]string, 0, len(c.Args)+len(args))
	full = append(full, c.Args...)
	full = append(full, args...)
	return c.Command, full
}

func (c ComposeTool) String() string {
	return strings.Join(append([]string{c.Command}, c.Args...), " ")
}

// Preflight verifies the container runtime and its compose tool before any lifecycle action
type Preflight struct {
	Runtime string
	runner  Runner
}

func NewPreflight(runtime string, runner Runner) *Preflight {
	return &Preflight{
		Runtime: runtime,
		runner:  runner,
	}
}

// Check makes sure the runtime is installed and its daemon answers, then picks a compose form.
func (p *Preflight) Check(ctx context.Context) (compose ComposeTool, err error) {
	runtime, err := p.runner.LookPath(p.Runtime)
	if err != nil {
		logrus.WithField("Runtime", p.Runtime).Debug("runtime lookup failed")
		return compose, ErrRuntimeNotFound
	}

	if err = p.runner.Quiet(ctx, runtime, "info"); err != nil {
		logrus.WithError(err).WithField("Runtime", runtime).Debug("runtime info failed")
		return compose, ErrDaemonUnreachable
	}

	if err = p.runner.Quiet(ctx, runtime, "compose", "version"); err == nil {
		compose = ComposeTool{Command: runtime, Args: []string{"compose"}}
		logrus.WithField("Compose", compose.String()).Debug("using compose plugin")
		return compose, nil
	}

	legacy, err := p.runner.LookPath(legacyComposeCommand)
	if err != nil {
		return compose, ErrComposeNotFound
	}
	if err = p.runner.Quiet(ctx, legacy, "version"); err != nil {
		return compose, ErrComposeNotFound
	}

	compose = ComposeTool{Command: legacy}
	logrus.WithField("Compose", compose.String()).Debug("using standalone compose")
	return compose, nil
}
