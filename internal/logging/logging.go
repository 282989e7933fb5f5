// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the encoder and level.
type Options struct {
	// Format is "json" (production) or "console" (development).
	Format string
	Debug  bool
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

// New returns a logger writing structured records to stderr.
func New(opt Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opt.Format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		return nil, fmt.Errorf("unknown log format %q", opt.Format)
	}
	if opt.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if len(opt.OutputPaths) > 0 {
		cfg.OutputPaths = opt.OutputPaths
	}
	cfg.DisableStacktrace = !opt.Debug
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("churnviz"), nil
}
