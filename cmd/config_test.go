package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gooze.dev/pkg/unitmut/internal/model"
)

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "unitmut", configBaseName)
	assert.Equal(t, "unitmut.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "UNITMUT", envPrefix)
	assert.Equal(t, "run.parallel", runParallelConfigKey)
	assert.Equal(t, "coverage.database", coverageDBConfigKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultReportsDir, viper.GetString(outputFlagName))
	assert.Equal(t, "auto", viper.GetString(uiConfigKey))
	assert.Equal(t, "go", viper.GetString(runFrameworkConfigKey))
	assert.Equal(t, defaultRunTimeout, viper.GetDuration(runTimeoutConfigKey))
	assert.True(t, viper.GetBool(runIndividualConfigKey))
	assert.Equal(t, "info", viper.GetString(logLevelKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelWarn))
		})
	}
}

func TestSplitCommand(t *testing.T) {
	assert.Equal(t, []string{"npx", "jasmine"}, splitCommand([]string{"npx jasmine"}))
	assert.Equal(t, []string{"npx", "jasmine --random=false"}, splitCommand([]string{"npx", "jasmine --random=false"}))
	assert.Empty(t, splitCommand(nil))
}

func TestConfigureLogger(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logFile := filepath.Join(t.TempDir(), "unitmut.log")
	configureLogger(logFile, true)

	require.NotNil(t, globalLogger)
	slog.Debug("debug line", "mutant", "abc")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "debug line")
	assert.Contains(t, string(content), "mutant=abc")
}

func TestRunnerConfigFromViper(t *testing.T) {
	cfg, err := runnerConfigFromViper()
	require.NoError(t, err)
	assert.Equal(t, m.FrameworkGo, cfg.Framework)
	assert.True(t, cfg.IndividualTests)
	assert.Equal(t, defaultRunTimeout, cfg.Timeout)
}
