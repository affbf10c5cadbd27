package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// windowCmd prints the posts inside a box.
var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the elevation posts inside a box",
	Long: `Print the elevation posts between two opposite corners of a box, north
at the top. Corners may be given in either order.

Examples:
  dtedinfo window --file n37.dt1 --ullat 37.02 --ullon -122.99 --lrlat 37.0 --lrlon -122.97`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		ullat, _ := flags.GetFloat64("ullat")
		ullon, _ := flags.GetFloat64("ullon")
		lrlat, _ := flags.GetFloat64("lrlat")
		lrlon, _ := flags.GetFloat64("lrlon")
		file, _ := flags.GetString("file")

		f, err := openFrame(cmd.Context(), file, (ullat+lrlat)/2, (ullon+lrlon)/2)
		if err != nil {
			return err
		}
		defer f.Dispose()

		cols := f.Elevations(ullat, ullon, lrlat, lrlon)
		if cols == nil {
			return fmt.Errorf("window could not be read from %s", f.Path())
		}

		width := 0
		for _, col := range cols {
			for _, v := range col {
				width = max(width, len(formatElevation(v)))
			}
		}
		for y := len(cols[0]) - 1; y >= 0; y-- {
			row := make([]string, len(cols))
			for x := range cols {
				row[x] = padRight(formatElevation(cols[x][y]), width)
			}
			fmt.Println(strings.TrimRight(strings.Join(row, " "), " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(windowCmd)

	for _, name := range []string{"ullat", "ullon", "lrlat", "lrlon"} {
		windowCmd.Flags().Float64(name, 0, "Box corner "+name+" (required)")
		windowCmd.MarkFlagRequired(name)
	}
	windowCmd.Flags().StringP("file", "f", "", "Frame file, bypassing the directory index")
}
