package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/dtedfs/dtedfs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "dtedfs-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	// Run from an empty directory so no stray config.yaml is picked up
	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) writeConfig(name, content string) string {
	path := filepath.Join(suite.tempDir, name)
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), ".", cfg.DTED.RootDir)
	assert.Equal(suite.T(), 1, cfg.DTED.Level)
	assert.Equal(suite.T(), internal.DefaultTranslator, cfg.DTED.Translator)
	assert.Equal(suite.T(), internal.DefaultMaxOpenFrames, cfg.DTED.MaxOpenFrames)
	assert.False(suite.T(), cfg.DTED.ReadWholeFile)
	assert.False(suite.T(), cfg.DTED.VerifyChecksum)
	assert.Equal(suite.T(), "bilinear", cfg.DTED.Interpolation)
	assert.Equal(suite.T(), internal.DefaultCacheDir, cfg.DTED.CacheDir)
	assert.Equal(suite.T(), internal.DefaultIgnoreFile, cfg.DTED.IgnoreFile)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
	assert.Equal(suite.T(), internal.DefaultLogDir, cfg.Log.Dir)
	assert.Equal(suite.T(),
		filepath.Join(internal.DefaultCacheDir, internal.DefaultSnapshotFile),
		cfg.DTED.SnapshotPath())
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configFile := suite.writeConfig("config.yaml", `
dted:
  rootDir: "./terrain"
  level: 2
  translator: flat
  maxOpenFrames: 8
  readWholeFile: true
  verifyChecksum: true
  interpolation: legacy
  snapshotFile: /tmp/dted-index.msgpack.zst
log:
  level: debug
  dir: ./logs
`)

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "./terrain", cfg.DTED.RootDir)
	assert.Equal(suite.T(), 2, cfg.DTED.Level)
	assert.Equal(suite.T(), "flat", cfg.DTED.Translator)
	assert.Equal(suite.T(), 8, cfg.DTED.MaxOpenFrames)
	assert.True(suite.T(), cfg.DTED.ReadWholeFile)
	assert.True(suite.T(), cfg.DTED.VerifyChecksum)
	assert.Equal(suite.T(), "legacy", cfg.DTED.Interpolation)
	assert.Equal(suite.T(), "/tmp/dted-index.msgpack.zst", cfg.DTED.SnapshotPath())
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
	assert.Equal(suite.T(), "./logs", cfg.Log.Dir)
}

func (suite *ConfigTestSuite) TestLoadConfigFromWorkingDirectory() {
	suite.writeConfig("config.yaml", "dted:\n  level: 0\n")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, cfg.DTED.Level)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesDefaults() {
	suite.T().Setenv("DTED_MAXOPENFRAMES", "3")
	suite.T().Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, cfg.DTED.MaxOpenFrames)
	assert.Equal(suite.T(), "warn", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	configFile := suite.writeConfig("malformed.yaml", `
dted:
  rootDir: "./terrain"
  invalid_yaml: [unclosed bracket
`)

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestValidation() {
	cases := map[string]string{
		"level":         "dted:\n  level: 3\n",
		"maxOpenFrames": "dted:\n  maxOpenFrames: 0\n",
		"interpolation": "dted:\n  interpolation: cubic\n",
	}
	for name, content := range cases {
		configFile := suite.writeConfig(name+".yaml", content)
		cfg, err := LoadConfig(configFile)
		assert.Error(suite.T(), err, name)
		assert.Nil(suite.T(), cfg, name)
	}
}

func (suite *ConfigTestSuite) TestAppConfigGlobal() {
	configFile := suite.writeConfig("config.yaml", "dted:\n  rootDir: /srv/dted\n")
	cfg, err := LoadConfig(configFile)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), cfg.DTED.RootDir, AppConfig.DTED.RootDir)
	assert.Equal(suite.T(), "/srv/dted", AppConfig.DTED.RootDir)
}
