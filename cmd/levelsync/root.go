package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zoobzio/levelsync"
)

var rootCmd = &cobra.Command{
	Use:   "levelsync",
	Short: "levelsync keeps the system volume and a Voicemeeter bus gain in step",
	Long: `levelsync mirrors the Windows master volume onto one or more Voicemeeter
bus gains and back, so media keys and the mixer always agree.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default: next to the executable)")
}

// configPath resolves --config, falling back to levelsync.yaml beside the binary.
func configPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	exe, err := os.Executable()
	if err != nil {
		return levelsync.DefaultConfigFile
	}
	return filepath.Join(filepath.Dir(exe), levelsync.DefaultConfigFile)
}
