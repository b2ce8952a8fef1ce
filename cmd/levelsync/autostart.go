package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoobzio/levelsync/pkg/autostart"
)

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage the logon scheduled task",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Run levelsync at logon",
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		command := autostart.Command(exe, "run")
		if p, _ := cmd.Flags().GetString("config"); p != "" {
			command = autostart.Command(exe, "run", "--config", p)
		}
		if err := autostart.New().Enable(cmd.Context(), command); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop running levelsync at logon",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := autostart.New().Disable(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
		return nil
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the logon task exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := autostart.New().Enabled(cmd.Context())
		if err != nil {
			return err
		}
		state := "disabled"
		if ok {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Autostart %s\n", state)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autostartCmd)
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd, autostartStatusCmd)
}
