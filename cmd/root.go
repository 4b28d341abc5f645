package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IanS5/hyrcania"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var config *hyrcania.Config
var project *hyrcania.Project
var runner hyrcania.Runner = hyrcania.NewExecRunner()
var prompter = hyrcania.NewPrompter(os.Stdin, os.Stdout)
var debug = false
var projectDir = "."

var cmdRoot = &cobra.Command{
	Use:   "hyrcania",
	Short: "Run and back up the Hyrcania notebook environment",
	Long: `Start, stop and inspect the containerized Jupyter environment used for
olive oil spectroscopy analysis, and snapshot or restore its project files.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if debug {
			logrus.SetLevel(logrus.DebugLevel)
			logrus.Debug("Debugging mode enabled")
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}

		project, err = hyrcania.NewProject(projectDir)
		if err != nil {
			return err
		}

		config, err = hyrcania.LoadConfig(project.Path())
		return
	},
}

func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s), received")
}

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		QuoteEmptyFields:       true,
		DisableSorting:         true,
	})

	cmdRoot.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Show debugging information")
	cmdRoot.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")
	cmdRoot.AddCommand(
		cmdStart,
		cmdStop,
		cmdRestart,
		cmdStatus,
		cmdLogs,
		cmdBuild,
		cmdCleanup,
		cmdBackup,
		cmdConfig)
}

// run executes the command line in args and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	out, errOut = stdout, stderr
	cmdRoot.SetArgs(args)
	cmdRoot.SetOut(stdout)
	cmdRoot.SetErr(stderr)

	cmd, err := cmdRoot.ExecuteContextC(ctx)
	if err != nil {
		printError("%s", err)
		if isUsageError(err) {
			cmd.Usage()
		}
		return 1
	}
	return 0
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
