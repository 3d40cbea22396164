package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logsDir = "logs"

// InitLogger initializes a zap logger with console and file outputs.
// env prefixes the log file name; verbose lowers the console level to debug.
func InitLogger(env string, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFileName := filepath.Join(logsDir, LogFileName(env, time.Now()))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	consoleLevel := zapcore.InfoLevel
	if verbose {
		consoleLevel = zapcore.DebugLevel
	}

	return zap.New(NewCore(os.Stderr, logFile, consoleLevel), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewCore tees a coloured console encoder at consoleLevel with a JSON file encoder at debug
func NewCore(console, file zapcore.WriteSyncer, consoleLevel zapcore.Level) zapcore.Core {
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), console, consoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), file, zapcore.DebugLevel),
	)
}

// LogFileName returns the per-run log file name
func LogFileName(env string, started time.Time) string {
	return fmt.Sprintf("%s_%s.log", env, started.Format("2006-01-02_15-04-05"))
}
