package cmd

import (
	"github.com/IanS5/hyrcania"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var overwriteConfig = false

var cmdConfig = &cobra.Command{
	Use:   "config",
	Short: "Manage the project's hyrcania.toml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var cmdConfigInit = &cobra.Command{
	Use:   "init",
	Short: "Write a hyrcania.toml with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if project.Exists(hyrcania.ConfigFileName) && !overwriteConfig {
			return errors.Errorf("%s already exists, use --force to overwrite it", hyrcania.ConfigPath(project.Path()))
		}

		if err := hyrcania.DefaultConfig().Write(project.Path()); err != nil {
			return err
		}
		printSuccess("Wrote %s", hyrcania.ConfigPath(project.Path()))
		return nil
	},
}

var cmdConfigShow = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *config
		if shown.Dropbox.Token != "" {
			shown.Dropbox.Token = "********"
		}

		data, err := toml.Marshal(&shown)
		if err != nil {
			return err
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	cmdConfigInit.Flags().BoolVarP(&overwriteConfig, "force", "f", false, "Overwrite an existing hyrcania.toml")
	cmdConfig.AddCommand(cmdConfigInit, cmdConfigShow)
}
