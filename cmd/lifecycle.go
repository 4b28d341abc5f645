package cmd

import (
	"context"

	"github.com/IanS5/hyrcania"
	"github.com/spf13/cobra"
)

var assumeYes = false

func makeLifecycleAction(name string, description string, action func(ctx context.Context, c *hyrcania.Controller) error) (cmd *cobra.Command) {
	return &cobra.Command{
		Use:   name,
		Short: description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			printStatus("Checking %s and its compose tool...", config.Runtime)
			compose, err := hyrcania.NewPreflight(config.Runtime, runner).Check(ctx)
			if err != nil {
				return err
			}
			printStatus("Using %s", compose)

			return action(ctx, hyrcania.NewController(project, config, compose, runner))
		},
	}
}

func printAccess(c *hyrcania.Controller) {
	for _, url := range c.URLs() {
		printStatus("Jupyter is available at %s", url)
	}
}

var cmdStart = makeLifecycleAction("start",
	"Rebuild the image and start the services",
	func(ctx context.Context, c *hyrcania.Controller) error {
		printStatus("Building image and starting services...")
		if err := c.Start(ctx); err != nil {
			return err
		}
		printSuccess("Services started")
		printAccess(c)
		return nil
	})

var cmdStop = makeLifecycleAction("stop",
	"Stop the services",
	func(ctx context.Context, c *hyrcania.Controller) error {
		if err := c.Stop(ctx); err != nil {
			return err
		}
		printSuccess("Services stopped")
		return nil
	})

var cmdRestart = makeLifecycleAction("restart",
	"Stop the services, wait, and start them again",
	func(ctx context.Context, c *hyrcania.Controller) error {
		if err := c.Restart(ctx); err != nil {
			return err
		}
		printSuccess("Services restarted")
		printAccess(c)
		return nil
	})

var cmdStatus = makeLifecycleAction("status",
	"Show the state of the services",
	func(ctx context.Context, c *hyrcania.Controller) error {
		return c.Status(ctx)
	})

var cmdLogs = makeLifecycleAction("logs",
	"Follow the service logs until interrupted",
	func(ctx context.Context, c *hyrcania.Controller) error {
		return c.Logs(ctx)
	})

var cmdBuild = makeLifecycleAction("build",
	"Rebuild the image without cache",
	func(ctx context.Context, c *hyrcania.Controller) error {
		if err := c.Build(ctx); err != nil {
			return err
		}
		printSuccess("Image built")
		return nil
	})

var cmdCleanup = makeLifecycleAction("cleanup",
	"Stop the services and remove their images, volumes and orphans",
	func(ctx context.Context, c *hyrcania.Controller) error {
		if !assumeYes && prompter.Interactive() &&
			!prompter.Confirm("This removes the images and volumes of %s, continue?", config.ProjectName) {
			printWarning("Cleanup cancelled")
			return nil
		}

		if err := c.Cleanup(ctx); err != nil {
			return err
		}
		printSuccess("Cleanup complete")
		return nil
	})

func init() {
	cmdCleanup.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}
