// Package logger configures the process-wide logrus logger used by the
// agentauth packages.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sage-x-project/sage-agentauth-go/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// InitLogger applies cfg to the logrus standard logger, which the library
// packages log through, and returns it.
func InitLogger(cfg *config.LogConfig) (*logrus.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("log config cannot be nil")
	}
	return logrus.StandardLogger(), Configure(logrus.StandardLogger(), cfg)
}

// Configure applies cfg to logger
func Configure(logger *logrus.Logger, cfg *config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	formatter, err := newFormatter(cfg.Format)
	if err != nil {
		return err
	}

	out, err := newOutput(cfg)
	if err != nil {
		return err
	}

	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	logger.SetOutput(out)
	logger.SetReportCaller(cfg.Caller)
	return nil
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		}, nil
	case "text", "":
		return &logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
}

func newOutput(cfg *config.LogConfig) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		return &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
}
