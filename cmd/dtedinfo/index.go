package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// indexCmd builds the directory index and reports what it found.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the frame directory tree",
	Long: `Scan --root for frames, save the index snapshot and print coverage per
level. With --nearest the closest indexed frame to --lat/--lon is shown.

Examples:
  dtedinfo index --root /data/dted
  dtedinfo index --root /data/dted --nearest --lat 40 --lon -120`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		rescan, _ := flags.GetBool("rescan")
		ix, err := openIndex(cmd.Context(), rescan)
		if err != nil {
			return err
		}

		fmt.Printf("Root:       %s\n", ix.Root())
		fmt.Printf("Translator: %s\n", ix.Translator().Name())
		fmt.Printf("Frames:     %d\n", ix.Count())
		for level := 0; level <= 2; level++ {
			cells := ix.Cells(level)
			if len(cells) == 0 {
				continue
			}
			fmt.Printf("Level %d:    %d cells, first %s, last %s\n", level, len(cells), cells[0], cells[len(cells)-1])
		}

		if nearest, _ := flags.GetBool("nearest"); nearest {
			lat, _ := flags.GetFloat64("lat")
			lon, _ := flags.GetFloat64("lon")
			cell, path, ok := ix.Nearest(lat, lon, state.cfg.DTED.Level)
			if !ok {
				return fmt.Errorf("no level %d frames indexed", state.cfg.DTED.Level)
			}
			fmt.Printf("Nearest:    %s %s\n", cell, path)
		}

		stats := ix.Stats()
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ev := state.console.Debug()
		for _, k := range keys {
			ev = ev.Interface(k, stats[k])
		}
		ev.Msg("index stats")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().Bool("rescan", false, "Ignore the saved snapshot and scan again")
	indexCmd.Flags().Bool("nearest", false, "Show the indexed frame closest to --lat/--lon")
	indexCmd.Flags().Float64("lat", 0, "Latitude for --nearest")
	indexCmd.Flags().Float64("lon", 0, "Longitude for --nearest")
}
