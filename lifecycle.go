package hyrcania

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Controller maps lifecycle verbs onto compose invocations for one project
type Controller struct {
	project *Project
	config  *Config
	compose ComposeTool
	runner  Runner
}

func NewController(project *Project, cfg *Config, compose ComposeTool, runner Runner) *Controller {
	return &Controller{
		project: project,
		config:  cfg,
		compose: compose,
		runner:  runner,
	}
}

func (c *Controller) run(ctx context.Context, args ...string) error {
	base := []string{"-f", c.project.Path(c.config.ComposeFile), "-p", c.config.ProjectName}
	name, full := c.compose.Invocation(append(base, args...)...)

	if err := c.runner.Run(ctx, name, full...); err != nil {
		return errors.Wrapf(err, "%s %s failed", c.compose, args[0])
	}
	return nil
}

// Start rebuilds the image from scratch and brings the services up detached
func (c *Controller) Start(ctx context.Context) error {
	if err := c.project.EnsureDirectories(c.config.Directories...); err != nil {
		return errors.Wrap(err, "failed to create project directories")
	}

	if err := c.Build(ctx); err != nil {
		return err
	}
	return c.up(ctx)
}

func (c *Controller) up(ctx context.Context) error {
	logrus.WithField("Project", c.config.ProjectName).Debug("Starting services")
	if err := c.run(ctx, "up", "-d"); err != nil {
		return err
	}
	return c.Status(ctx)
}

func (c *Controller) Stop(ctx context.Context) error {
	return c.run(ctx, "down")
}

// Restart stops the services, waits the configured delay, then starts them without rebuilding
func (c *Controller) Restart(ctx context.Context) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}

	logrus.WithField("Delay", c.config.RestartDelay.String()).Debug("Waiting before restart")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.config.RestartDelay.Duration):
	}

	return c.up(ctx)
}

func (c *Controller) Status(ctx context.Context) error {
	return c.run(ctx, "ps")
}

// Logs follows the service logs until ctx is cancelled
func (c *Controller) Logs(ctx context.Context) error {
	err := c.run(ctx, "logs", "-f")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (c *Controller) Build(ctx context.Context) error {
	return c.run(ctx, "build", "--no-cache")
}

// Cleanup stops the services and removes their images, volumes and orphans
func (c *Controller) Cleanup(ctx context.Context) error {
	return c.run(ctx, "down", "--rmi", "all", "--volumes", "--remove-orphans")
}

// URLs lists the addresses the notebook server answers on
func (c *Controller) URLs() []string {
	urls := make([]string, 0, len(c.config.Ports))
	for _, port := range c.config.Ports {
		urls = append(urls, fmt.Sprintf("http://localhost:%d", port))
	}
	return urls
}
