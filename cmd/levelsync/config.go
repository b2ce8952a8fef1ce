package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoobzio/levelsync"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath(cmd)
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := levelsync.WriteConfig(path, levelsync.Defaults()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Loads the configuration file, applies defaults and validation, and prints the
result. Fields that were reset to their default are listed on stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath(cmd)
		cfg, warnings, err := levelsync.LoadConfig(path)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		format, _ := cmd.Flags().GetString("format")
		var codec levelsync.Codec = levelsync.YAMLCodec{}
		if format == "json" {
			codec = levelsync.JSONCodec{}
		}
		data, err := codec.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configShowCmd.Flags().String("format", "yaml", "Output format: yaml or json")
}
