package cli

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the CLI logger. Verbose runs get a console logger at
// debug level; otherwise only warnings and errors are written, as JSON.
// Logs always go to w so they never mix with command output.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	var (
		config zap.Config
		enc    zapcore.Encoder
	)
	if verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		enc = zapcore.NewConsoleEncoder(config.EncoderConfig)
	} else {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		enc = zapcore.NewJSONEncoder(config.EncoderConfig)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), config.Level)
	return zap.New(core)
}
