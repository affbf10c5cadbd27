package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	internal "github.com/ZanzyTHEbar/dtedfs/dtedfs"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/config"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/directory"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/handles"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/logging"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	console zerolog.Logger
	pool    *handles.Pool
	opts    frame.Options
}

var state app

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dtedinfo",
	Short: "Inspect DTED frames and frame directories",
	Long: `dtedinfo reads DTED (Digital Terrain Elevation Data) cells.

It can dump the UHL, DSI and ACC headers of a frame, answer elevation and
window queries, and index a directory tree of frames so queries can be given
as coordinates instead of file names.

Settings come from config.yaml (see --config), DTED_* and LOG_* environment
variables, and the flags below, in increasing order of precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		state.pool.Purge()
		state.log.Close()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default searches ., etc/dtedfs and "+internal.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringP("root", "r", "", "Root directory of the frame tree")
	rootCmd.PersistentFlags().IntP("level", "l", 1, "DTED level used for directory lookups")
	rootCmd.PersistentFlags().String("translator", "", "Directory naming convention: standard or flat")
	rootCmd.PersistentFlags().String("interpolation", "", "Interpolation mode: bilinear or legacy")
	rootCmd.PersistentFlags().Bool("verify-checksum", false, "Reject data records whose checksum does not match")
	rootCmd.PersistentFlags().Bool("whole-file", false, "Read every column when a frame is opened")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

func setup(cmd *cobra.Command, args []string) error {
	state.console = internal.GetLogger()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	state.cfg = cfg

	state.log, err = logging.New(cfg.Log.Level, cfg.Log.Dir)
	if err != nil {
		return err
	}

	state.pool, err = handles.NewPool(cfg.DTED.MaxOpenFrames)
	if err != nil {
		return err
	}

	mode, err := frame.ParseInterpolationMode(cfg.DTED.Interpolation)
	if err != nil {
		return err
	}
	state.opts = frame.Options{
		ReadWholeFile:  cfg.DTED.ReadWholeFile,
		Pool:           state.pool,
		Interpolation:  mode,
		VerifyChecksum: cfg.DTED.VerifyChecksum,
	}

	state.console.Debug().
		Str("root", cfg.DTED.RootDir).
		Int("level", cfg.DTED.Level).
		Str("log_file", state.log.LogFile).
		Msg("configuration loaded")
	return nil
}

// applyFlags lets explicitly set flags win over file and environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.DTED.RootDir, _ = flags.GetString("root")
	}
	if flags.Changed("level") {
		cfg.DTED.Level, _ = flags.GetInt("level")
	}
	if flags.Changed("translator") {
		cfg.DTED.Translator, _ = flags.GetString("translator")
	}
	if flags.Changed("interpolation") {
		cfg.DTED.Interpolation, _ = flags.GetString("interpolation")
	}
	if flags.Changed("verify-checksum") {
		cfg.DTED.VerifyChecksum, _ = flags.GetBool("verify-checksum")
	}
	if flags.Changed("whole-file") {
		cfg.DTED.ReadWholeFile, _ = flags.GetBool("whole-file")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
}

// openIndex loads the snapshot when it belongs to the configured root and
// otherwise scans the root. A fresh scan refreshes the snapshot.
func openIndex(ctx context.Context, rescan bool) (*directory.Index, error) {
	dted := state.cfg.DTED
	translator, err := directory.TranslatorByName(dted.Translator)
	if err != nil {
		return nil, err
	}

	if !rescan {
		ix, err := directory.LoadIndex(dted.SnapshotPath(), translator)
		switch {
		case err == nil && ix.Root() == dted.RootDir:
			return ix, nil
		case err == nil:
			state.console.Info().Str("snapshot_root", ix.Root()).Msg("snapshot is for another root, rescanning")
		case !errors.Is(err, os.ErrNotExist):
			state.console.Warn().Err(err).Msg("ignoring unreadable index snapshot")
		}
	}

	ix := directory.NewIndex(dted.RootDir, translator).WithIgnoreFile(dted.IgnoreFile)
	if err := ix.Organize(ctx); err != nil {
		return nil, err
	}
	if err := ix.Save(dted.SnapshotPath()); err != nil {
		state.console.Warn().Err(err).Msg("could not save index snapshot")
	}
	return ix, nil
}

// openFrame opens file when given, otherwise the indexed frame covering
// (lat, lon) at the configured level.
func openFrame(ctx context.Context, file string, lat, lon float64) (*frame.Frame, error) {
	if file != "" {
		f := frame.Open(file, state.opts)
		if !f.IsValid() {
			f.Dispose()
			return nil, fmt.Errorf("%s is not a readable DTED frame", file)
		}
		return f, nil
	}
	ix, err := openIndex(ctx, false)
	if err != nil {
		return nil, err
	}
	return ix.Open(lat, lon, state.cfg.DTED.Level, state.opts)
}

func formatAccuracy(v int) string {
	if v == frame.NotAvailable {
		return "NA"
	}
	return fmt.Sprintf("%d m", v)
}

func formatElevation(v int16) string {
	if v == frame.NullElevation {
		return "null"
	}
	return fmt.Sprintf("%d", v)
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
