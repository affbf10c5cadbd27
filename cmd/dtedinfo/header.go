package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame"

	"github.com/spf13/cobra"
)

// headerCmd dumps the header records of a frame.
var headerCmd = &cobra.Command{
	Use:   "header FILE",
	Short: "Print the UHL, DSI and ACC records of a frame",
	Long: `Print the header records of a DTED frame.

Examples:
  dtedinfo header w123/n37.dt1
  dtedinfo header --stats n37.dt2.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openFrame(cmd.Context(), args[0], 0, 0)
		if err != nil {
			return err
		}
		defer f.Dispose()

		uhl, dsi, acc := f.UHL(), f.DSI(), f.ACC()
		fmt.Printf("File:              %s\n", f.Path())
		fmt.Printf("Origin:            %.6f, %.6f\n", uhl.LatOrigin, uhl.LonOrigin)
		fmt.Printf("Post interval:     %d x %d (tenths of arc seconds, lat x lon)\n", uhl.LatPostInterval, uhl.LonPostInterval)
		fmt.Printf("Grid:              %d lon lines x %d lat points\n", uhl.NumLonLines, uhl.NumLatPoints)
		fmt.Printf("Security:          %s\n", uhl.SecurityCode)
		fmt.Printf("Reference:         %s\n", uhl.Reference)
		fmt.Printf("Series:            %s edition %d\n", dsi.Series, dsi.Edition)
		fmt.Printf("Datum:             %s / %s\n", dsi.HorizontalDatum, dsi.VerticalDatum)
		fmt.Printf("Bounds:            [%.6f, %.6f] - [%.6f, %.6f]\n", dsi.SWLat, dsi.SWLon, dsi.NELat, dsi.NELon)
		if dsi.BoundsFromHeaders {
			fmt.Printf("                   (derived from the UHL, DSI corners unusable)\n")
		}
		fmt.Printf("Vertical accuracy: %s\n", formatAccuracy(uhl.VerticalAccuracy))
		fmt.Printf("Absolute accuracy: %s horizontal, %s vertical\n", formatAccuracy(acc.AbsHorizontal), formatAccuracy(acc.AbsVertical))
		fmt.Printf("Relative accuracy: %s horizontal, %s vertical\n", formatAccuracy(acc.RelHorizontal), formatAccuracy(acc.RelVertical))

		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			grid, ok := f.Grid()
			lo, hi := int16(32767), int16(-32768)
			hx, hy, nulls := 0, 0, 0
			for x, col := range grid {
				for y, v := range col {
					if v == frame.NullElevation {
						nulls++
						continue
					}
					lo = min(lo, v)
					if v > hi {
						hi, hx, hy = v, x, y
					}
				}
			}
			s := f.Stats()
			fmt.Printf("Elevation range:   %d .. %d m (%d null posts, complete=%t)\n", lo, hi, nulls, ok)
			fmt.Printf("Highest post:      %.6f, %.6f\n",
				frame.IndexToGeo(hy, uhl.LatOrigin, uhl.LatPostInterval),
				frame.IndexToGeo(hx, uhl.LonOrigin, uhl.LonPostInterval))
			fmt.Printf("Columns read:      %d ok, %d failed, %d bytes\n", s.ColumnLoads, s.ColumnFailed, s.BytesRead)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
	headerCmd.Flags().Bool("stats", false, "Read the whole grid and print elevation statistics")
}
