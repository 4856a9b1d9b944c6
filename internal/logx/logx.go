// Package logx builds the process logger.
package logx

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger at the given level ("debug", "info",
// "warn" or "error"). Lines below warn go to stdout, the rest to stderr.
func New(level string) (*zap.Logger, error) {
	return newLogger(level, os.Stdout, os.Stderr)
}

func newLogger(level string, stdout, stderr io.Writer) (*zap.Logger, error) {
	minLv, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	lowLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLv && l < zapcore.WarnLevel })
	highLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= minLv && l >= zapcore.WarnLevel })

	tee := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(stdout), lowLv),
		zapcore.NewCore(encoder, zapcore.AddSync(stderr), highLv),
	)
	return zap.New(tee), nil
}

// ForHost tags every line of logger with the host id.
func ForHost(logger *zap.Logger, hostID string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.With(zap.String("host", hostID))
}
