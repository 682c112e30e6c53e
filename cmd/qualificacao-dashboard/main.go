package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iwvelando/qualificacao-dashboard/internal/config"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the state shared by every command.
type app struct {
	configPath       string
	serverConfigPath string
	logLevel         string

	conf *config.Configuration
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var encoder zapcore.Encoder
	switch format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	sink := zapcore.Lock(os.Stderr)
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   loggingConfig.OutputFile,
			MaxSize:    loggingConfig.MaxSizeMB,
			MaxBackups: loggingConfig.MaxBackups,
			MaxAge:     loggingConfig.MaxAgeDays,
			Compress:   true,
		})
	}

	return zap.New(zapcore.NewCore(encoder, sink, zapLevel), zap.AddCaller()), nil
}

// mergeLogging overlays the non-empty fields of override on base.
func mergeLogging(base, override config.LoggingConfig) config.LoggingConfig {
	if override.Level != "" {
		base.Level = override.Level
	}
	if override.Format != "" {
		base.Format = override.Format
	}
	if override.OutputFile != "" {
		base.OutputFile = override.OutputFile
	}
	if override.MaxSizeMB > 0 {
		base.MaxSizeMB = override.MaxSizeMB
	}
	if override.MaxBackups > 0 {
		base.MaxBackups = override.MaxBackups
	}
	if override.MaxAgeDays > 0 {
		base.MaxAgeDays = override.MaxAgeDays
	}
	return base
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "qualificacao-dashboard",
		Short:         "Choropleth dashboard of vocational course completions per municipality",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if !cmd.Flags().Changed("config") {
				if _, err := os.Stat(path); err != nil {
					path = ""
				}
			}
			conf, err := config.LoadConfiguration(path)
			if err != nil {
				return fmt.Errorf("failed to load configuration at %s: %w", a.configPath, err)
			}
			a.conf = conf
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newLayerCmd(a),
		newResolveCmd(a),
		newDetailCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
}
