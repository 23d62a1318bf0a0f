package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/mutguard/internal/domain"
	m "gooze.dev/pkg/mutguard/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mutguard"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName   = "output"
	verboseFlagName  = "verbose"
	workersFlagName  = "workers"
	engineFlagName   = "engine"
	failOnFlagName   = "fail-on"
	diffFlagName     = "diff"
	debounceFlagName = "debounce"

	blockThresholdKey    = "mutation.block_threshold"
	warnThresholdKey     = "mutation.warn_threshold"
	maxMutationsKey      = "mutation.max_mutations_per_file"
	mutantTimeoutKey     = "mutation.mutant_timeout"
	fileTimeoutKey       = "mutation.file_timeout"
	workersKey           = "mutation.workers"
	quickBudgetKey       = "quick.budget"
	quickMaxMutationsKey = "quick.max_mutations_per_file"
	engineModeKey        = "engine.mode"
	engineToolsKey       = "engine.tools"
	engineTimeoutKey     = "engine.timeout"
	failOnKey            = "scan.fail_on"
	debounceKey          = "watch.debounce"

	defaultFailOn   = failOnNone
	defaultDebounce = "500ms"

	envPrefix = "MUTGUARD"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mutguard.log"
	defaultLogLevel      = "info"
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
	viper.SetEnvKeyReplacer(envKeyReplacer())

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}

		return
	}
}

// envKeyReplacer maps config keys to env names, e.g. mutation.workers to
// MUTGUARD_MUTATION_WORKERS.
func envKeyReplacer() *strings.Replacer {
	return strings.NewReplacer("-", "_", ".", "_")
}

// setDefaults registers every key with its default, so `init` writes a
// complete file and env overrides resolve.
func setDefaults(v *viper.Viper) {
	defaults := domain.DefaultConfig()

	v.SetDefault(configVersionKey, currentConfigVersion)
	v.SetDefault(outputFlagName, string(defaults.ReportsDir))

	v.SetDefault(blockThresholdKey, defaults.BlockThreshold)
	v.SetDefault(warnThresholdKey, defaults.WarnThreshold)
	v.SetDefault(maxMutationsKey, defaults.MaxMutationsPerFile)
	v.SetDefault(mutantTimeoutKey, defaults.MutantTimeout.String())
	v.SetDefault(fileTimeoutKey, defaults.FileTimeout.String())
	v.SetDefault(workersKey, defaults.Workers)

	v.SetDefault(quickBudgetKey, defaults.QuickBudget.String())
	v.SetDefault(quickMaxMutationsKey, defaults.QuickMaxMutationsPerFile)

	v.SetDefault(engineModeKey, string(defaults.Engine))
	v.SetDefault(engineToolsKey, defaults.Tools)
	v.SetDefault(engineTimeoutKey, defaults.EngineTimeout.String())

	v.SetDefault(failOnKey, defaultFailOn)
	v.SetDefault(debounceKey, defaultDebounce)

	v.SetDefault(logFilenameKey, defaultLogFilename)
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)
}

// configFromViper builds the engine configuration from config file, env and
// flags. Range checks are left to domain.Config.Validate.
func configFromViper(v *viper.Viper) domain.Config {
	return domain.Config{
		BlockThreshold:           v.GetFloat64(blockThresholdKey),
		WarnThreshold:            v.GetFloat64(warnThresholdKey),
		MaxMutationsPerFile:      v.GetInt(maxMutationsKey),
		MutantTimeout:            v.GetDuration(mutantTimeoutKey),
		FileTimeout:              v.GetDuration(fileTimeoutKey),
		Workers:                  v.GetInt(workersKey),
		QuickBudget:              v.GetDuration(quickBudgetKey),
		QuickMaxMutationsPerFile: v.GetInt(quickMaxMutationsKey),
		Engine:                   domain.EngineMode(strings.ToLower(strings.TrimSpace(v.GetString(engineModeKey)))),
		Tools:                    v.GetStringSlice(engineToolsKey),
		EngineTimeout:            v.GetDuration(engineTimeoutKey),
		ReportsDir:               m.Path(v.GetString(outputFlagName)),
	}
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

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotating log file.
// verbose forces debug level.
func configureLogger(verbose bool) {
	logPath := strings.TrimSpace(viper.GetString(logFilenameKey))
	if logPath == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
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

// describeConfig renders the effective configuration for debug logs.
func describeConfig(cfg domain.Config) string {
	return fmt.Sprintf("block=%.2f warn=%.2f max=%d mutant_timeout=%s file_timeout=%s workers=%d engine=%s",
		cfg.BlockThreshold, cfg.WarnThreshold, cfg.MaxMutationsPerFile, cfg.MutantTimeout, cfg.FileTimeout,
		cfg.EffectiveWorkers(), cfg.Engine)
}
