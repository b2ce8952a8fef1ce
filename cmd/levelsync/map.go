package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/levelsync"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Convert between a volume percentage and a bus gain",
	Example: `  levelsync map --volume 50
  levelsync map --gain -6 --curve 0.6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		curve, _ := cmd.Flags().GetFloat64("curve")
		m := levelsync.NewMapper(curve)
		out := cmd.OutOrStdout()

		switch {
		case cmd.Flags().Changed("volume") && cmd.Flags().Changed("gain"):
			return errors.New("use either --volume or --gain")
		case cmd.Flags().Changed("volume"):
			v, _ := cmd.Flags().GetInt("volume")
			fmt.Fprintf(out, "%s -> %s\n", levelsync.Percent(v), levelsync.Decibels(m.ToGain(v)))
		case cmd.Flags().Changed("gain"):
			g, _ := cmd.Flags().GetFloat64("gain")
			fmt.Fprintf(out, "%s -> %s\n", levelsync.Decibels(g), levelsync.Percent(m.ToVolume(g)))
		default:
			return errors.New("one of --volume or --gain is required")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().Int("volume", 0, "Volume percentage (0-100)")
	mapCmd.Flags().Float64("gain", 0, "Bus gain in dB (-60 to 12)")
	mapCmd.Flags().Float64("curve", levelsync.DefaultCurve, "Curve exponent")
}
