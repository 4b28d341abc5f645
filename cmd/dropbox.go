package cmd

import (
	"github.com/IanS5/hyrcania"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var pruneRemote = false

// storageService is swapped out by tests
var storageService = func() (hyrcania.StorageService, error) {
	return hyrcania.NewDropbox(config.Dropbox.Token)
}

var cmdBackupPush = &cobra.Command{
	Use:   "push",
	Short: "Upload local archives to Dropbox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageService()
		if err != nil {
			return err
		}

		logrus.WithField("Folder", config.Dropbox.Folder).Debug("Pushing archives")
		uploaded, deleted, err := project.Push(s, config.Dropbox.Folder, pruneRemote)
		for _, name := range uploaded {
			printStatus("Uploaded %s", name)
		}
		for _, name := range deleted {
			printStatus("Deleted %s from Dropbox", name)
		}
		if err != nil {
			return err
		}

		if len(uploaded) == 0 && len(deleted) == 0 {
			printSuccess("Dropbox is already up to date")
			return nil
		}
		printSuccess("Uploaded %d and deleted %d archive(s) in %s", len(uploaded), len(deleted), config.Dropbox.Folder)
		return nil
	},
}

var cmdBackupPull = &cobra.Command{
	Use:   "pull",
	Short: "Download archives from Dropbox that are missing locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := storageService()
		if err != nil {
			return err
		}

		logrus.WithField("Folder", config.Dropbox.Folder).Debug("Pulling archives")
		downloaded, err := project.Pull(s, config.Dropbox.Folder)
		for _, name := range downloaded {
			printStatus("Downloaded %s", name)
		}
		if err != nil {
			return err
		}

		if len(downloaded) == 0 {
			printSuccess("No new archives on Dropbox")
			return nil
		}
		printSuccess("Downloaded %d archive(s) from %s", len(downloaded), config.Dropbox.Folder)
		return nil
	},
}

func init() {
	cmdBackupPush.Flags().BoolVar(&pruneRemote, "prune", false, "Delete remote archives that no longer exist locally")
}
