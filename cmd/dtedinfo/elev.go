package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// elevCmd answers point queries.
var elevCmd = &cobra.Command{
	Use:   "elev",
	Short: "Get the elevation at a location",
	Long: `Get the terrain elevation at a geographic coordinate.

The frame is given with --file or looked up in the directory index under
--root at --level.

Examples:
  dtedinfo elev --lat 37.5 --lon -122.4 --root /data/dted
  dtedinfo elev --lat 37.5 --lon -122.4 --file w123/n37.dt1 --interp`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		file, _ := cmd.Flags().GetString("file")
		interp, _ := cmd.Flags().GetBool("interp")

		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if lon < -180 || lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}

		f, err := openFrame(cmd.Context(), file, lat, lon)
		if err != nil {
			return err
		}
		defer f.Dispose()

		nearest := f.ElevationAt(lat, lon)
		fmt.Printf("Location:  %.6f, %.6f\n", lat, lon)
		fmt.Printf("Frame:     %s\n", f.Path())
		fmt.Printf("Elevation: %s\n", formatElevation(nearest))
		if interp {
			fmt.Printf("Interpolated (%s): %s\n", state.opts.Interpolation, formatElevation(f.InterpElevationAt(lat, lon)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(elevCmd)

	elevCmd.Flags().Float64("lat", 0, "Latitude (required)")
	elevCmd.Flags().Float64("lon", 0, "Longitude (required)")
	elevCmd.MarkFlagRequired("lat")
	elevCmd.MarkFlagRequired("lon")

	elevCmd.Flags().StringP("file", "f", "", "Frame file, bypassing the directory index")
	elevCmd.Flags().Bool("interp", false, "Also print the interpolated elevation")
}
