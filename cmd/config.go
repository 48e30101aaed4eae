package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/unitmut/internal/controller"
	m "gooze.dev/pkg/unitmut/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "unitmut"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName       = "output"
	uiFlagName           = "ui"
	excludeFlagName      = "exclude"
	verboseFlagName      = "verbose"
	logFileFlagName      = "log-file"
	runParallelFlagName  = "parallel"
	runShardFlagName     = "shard"
	runTestsFlagName     = "tests"
	runTimeoutFlagName   = "timeout"
	runIndividualFlag    = "individual-tests"
	runFrameworkFlagName = "framework"
	runCommandFlagName   = "command"
	runOperatorsFlagName = "operators"
	coverageDBFlagName   = "coverage-db"
	viewMutantFlagName   = "mutant"

	uiConfigKey             = "ui"
	excludeConfigKey        = "paths.exclude"
	runParallelConfigKey    = "run.parallel"
	runShardConfigKey       = "run.shard"
	runTimeoutConfigKey     = "run.timeout"
	runIndividualConfigKey  = "run.individual_tests"
	runFrameworkConfigKey   = "run.framework"
	runCommandConfigKey     = "run.command"
	runOperatorsConfigKey   = "run.operators"
	runEnvConfigKey         = "run.env"
	runSpillDirConfigKey    = "run.spill_dir"
	coverageDBConfigKey     = "coverage.database"
	defaultReportsDir       = ".unitmut-reports"
	defaultRunParallel      = 0
	defaultRunTimeout       = 2 * time.Minute
	defaultIndividualTests  = true
	defaultCoverageDatabase = ".unitmut-coverage.db"

	envPrefix = "UNITMUT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".unitmut.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setConfigDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

func setConfigDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(uiConfigKey, controller.OutputAuto)
	viper.SetDefault(excludeConfigKey, []string{})

	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(runShardConfigKey, "")
	viper.SetDefault(runTimeoutConfigKey, defaultRunTimeout.String())
	viper.SetDefault(runIndividualConfigKey, defaultIndividualTests)
	viper.SetDefault(runFrameworkConfigKey, string(m.FrameworkGo))
	viper.SetDefault(runCommandConfigKey, []string{})
	viper.SetDefault(runOperatorsConfigKey, []string{})
	viper.SetDefault(runEnvConfigKey, []string{})
	viper.SetDefault(runSpillDirConfigKey, "")
	viper.SetDefault(coverageDBConfigKey, defaultCoverageDatabase)

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// runnerConfigFromViper assembles the runner configuration from flags,
// environment and the config file.
func runnerConfigFromViper() (m.RunnerConfig, error) {
	cfg := m.RunnerConfig{
		IndividualTests: viper.GetBool(runIndividualConfigKey),
		Framework:       m.Framework(strings.ToLower(strings.TrimSpace(viper.GetString(runFrameworkConfigKey)))),
		Timeout:         viper.GetDuration(runTimeoutConfigKey),
		Command:         splitCommand(viper.GetStringSlice(runCommandConfigKey)),
		Env:             viper.GetStringSlice(runEnvConfigKey),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid runner configuration: %w", err)
	}

	return cfg, nil
}

// splitCommand accepts the command either as a list or as one
// space-separated string, which is how environment variables arrive.
func splitCommand(parts []string) []string {
	if len(parts) != 1 {
		return parts
	}

	return strings.Fields(parts[0])
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// numeric slog levels, e.g. -4 for debug
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at the configured level; verbose switches to Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
