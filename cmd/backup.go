package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/IanS5/hyrcania"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errNoBackups = errors.New("no backups found")

func archiver() hyrcania.BackupService {
	return hyrcania.NewTarArchiver(project, config, runner)
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	printStatus("Creating backup of %s...", project.Path())
	archive, err := archiver().Backup(cmd.Context())
	if err != nil {
		return err
	}

	for _, p := range archive.Skipped {
		printWarning("%s not found, not included in the backup", p)
	}
	printSuccess("Backup created: %s (%s)", archive.FileName(), humanize.Bytes(uint64(archive.Size)))
	return nil
}

// resolveArchive accepts paths relative to the working directory or to the project
func resolveArchive(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	if _, err := os.Stat(file); err != nil && project.Exists(file) {
		return project.Path(file)
	}
	return file
}

func chooseArchive(bs hyrcania.BackupService) (string, error) {
	archives, err := bs.List()
	if err != nil {
		return "", err
	}
	if len(archives) == 0 {
		return "", errNoBackups
	}

	options := make([]string, 0, len(archives))
	for _, a := range archives {
		options = append(options, a.FileName())
	}

	choice, err := prompter.Choose("Which backup should be restored?", options)
	if err == hyrcania.ErrNotInteractive {
		return "", errors.New("no archive given, usage: hyrcania backup restore FILE")
	}
	if err != nil {
		return "", err
	}
	return project.Path(choice), nil
}

var cmdBackup = &cobra.Command{
	Use:   "backup",
	Short: "Create a backup of the project (see subcommands for restore, list, push and pull)",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

var cmdBackupCreate = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the project files into a timestamped archive",
	Args:  cobra.NoArgs,
	RunE:  runBackupCreate,
}

var cmdBackupRestore = &cobra.Command{
	Use:   "restore [FILE]",
	Short: "Restore the project files from an archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		bs := archiver()

		var file string
		if len(args) == 1 {
			file = resolveArchive(args[0])
		} else if file, err = chooseArchive(bs); err != nil {
			return err
		}

		printStatus("Restoring from %s...", file)
		report, err := bs.Restore(cmd.Context(), file)
		if err != nil {
			return err
		}

		if report.Partial() {
			printWarning("Partially restored, missing from the backup: %s", strings.Join(report.Missing, ", "))
			return nil
		}
		printSuccess("Restored %s", strings.Join(report.Restored, ", "))
		return nil
	},
}

var cmdBackupList = &cobra.Command{
	Use:   "list",
	Short: "List the archives in the project directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archives, err := archiver().List()
		if err != nil {
			return err
		}

		if len(archives) == 0 {
			printWarning("No backups found in %s", project.Path())
			return nil
		}

		printStatus("Available backups:")
		for _, a := range archives {
			cmd.Printf("  %s (%s)\n", a.FileName(), humanize.Bytes(uint64(a.Size)))
		}
		return nil
	},
}

func init() {
	cmdBackup.AddCommand(cmdBackupCreate, cmdBackupRestore, cmdBackupList, cmdBackupPush, cmdBackupPull)
}
