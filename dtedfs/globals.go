package internal

import (
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// DefaultAppName names the config directory
	DefaultAppName       = "dtedfs"
	DefaultConfigPath    = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultCacheDir      = filepath.Join(DefaultConfigPath, ".cache")
	DefaultLogDir        = filepath.Join(DefaultConfigPath, "logs")
	DefaultSnapshotFile  = "index.msgpack.zst"
	DefaultIgnoreFile    = ".dtedignore"
	DefaultConfigFile    = filepath.Join(DefaultConfigPath, "config.yaml")
	DefaultTranslator    = "standard"
	DefaultMaxOpenFrames = 64
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a console zerolog logger for user-facing output
func GetLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
