package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karpov/subpin/internal/utils"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: debug\ntools:\n  subpin:\n    remote_host: git@example.com\n"
	testDefaultBackoffKeyConstant     = "tools.subpin.fetch_backoff_seconds"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Tools struct {
		Subpin struct {
			RemoteHost          string `mapstructure:"remote_host"`
			FetchBackoffSeconds int    `mapstructure:"fetch_backoff_seconds"`
		} `mapstructure:"subpin"`
	} `mapstructure:"tools"`
}

func TestConfigurationLoaderMergesFileAndDefaults(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContentConstant), 0o644))

	loader := utils.NewConfigurationLoader("config", "yaml", "SUBPIN", []string{temporaryDirectory})

	var configuration loaderTestConfiguration
	loadedConfiguration, loadError := loader.LoadConfiguration(configurationPath, map[string]any{testDefaultBackoffKeyConstant: 10}, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, configurationPath, loadedConfiguration.ConfigFileUsed)
	require.Equal(testInstance, "debug", configuration.Common.LogLevel)
	require.Equal(testInstance, "git@example.com", configuration.Tools.Subpin.RemoteHost)
	require.Equal(testInstance, 10, configuration.Tools.Subpin.FetchBackoffSeconds)
}

func TestConfigurationLoaderToleratesMissingFile(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader("config", "yaml", "SUBPIN", []string{testInstance.TempDir()})

	var configuration loaderTestConfiguration
	_, loadError := loader.LoadConfiguration("", map[string]any{testDefaultBackoffKeyConstant: 10}, &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 10, configuration.Tools.Subpin.FetchBackoffSeconds)
}
