package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/dtedfs/dtedfs"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	DTED DTEDConfig `mapstructure:"dted"`
	Log  LogConfig  `mapstructure:"log"`
}

// DTEDConfig stores frame reader and directory index settings.
type DTEDConfig struct {
	RootDir        string `mapstructure:"rootDir"`
	Level          int    `mapstructure:"level"`
	Translator     string `mapstructure:"translator"`
	MaxOpenFrames  int    `mapstructure:"maxOpenFrames"`
	ReadWholeFile  bool   `mapstructure:"readWholeFile"`
	VerifyChecksum bool   `mapstructure:"verifyChecksum"`
	Interpolation  string `mapstructure:"interpolation"`
	CacheDir       string `mapstructure:"cacheDir"`
	SnapshotFile   string `mapstructure:"snapshotFile"`
	IgnoreFile     string `mapstructure:"ignoreFile"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// SnapshotPath returns the absolute location of the index snapshot.
func (c DTEDConfig) SnapshotPath() string {
	if filepath.IsAbs(c.SnapshotFile) {
		return c.SnapshotFile
	}
	return filepath.Join(c.CacheDir, c.SnapshotFile)
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("dted.rootDir", ".")
	v.SetDefault("dted.level", 1)
	v.SetDefault("dted.translator", internal.DefaultTranslator)
	v.SetDefault("dted.maxOpenFrames", internal.DefaultMaxOpenFrames)
	v.SetDefault("dted.readWholeFile", false)
	v.SetDefault("dted.verifyChecksum", false)
	v.SetDefault("dted.interpolation", "bilinear")
	v.SetDefault("dted.cacheDir", internal.DefaultCacheDir)
	v.SetDefault("dted.snapshotFile", internal.DefaultSnapshotFile)
	v.SetDefault("dted.ignoreFile", internal.DefaultIgnoreFile)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", internal.DefaultLogDir)

	// e.g. dted.maxOpenFrames becomes DTED_MAXOPENFRAMES
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults will be used.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DTED.Level < 0 || c.DTED.Level > 2 {
		return fmt.Errorf("dted.level must be 0, 1 or 2, got %d", c.DTED.Level)
	}
	if c.DTED.MaxOpenFrames < 1 {
		return fmt.Errorf("dted.maxOpenFrames must be positive, got %d", c.DTED.MaxOpenFrames)
	}
	switch strings.ToLower(c.DTED.Interpolation) {
	case "bilinear", "legacy":
	default:
		return fmt.Errorf("dted.interpolation must be bilinear or legacy, got %q", c.DTED.Interpolation)
	}
	return nil
}
