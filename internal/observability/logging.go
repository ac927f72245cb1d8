// Package observability builds the process logger.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DoyleJ11/grid-tactics-server/internal/config"
)

const serviceName = "grid-tactics"

// NewLogger builds the server's logger, writing to stderr. "json" is meant
// for deployments and "console" for local play-testing.
//
// Precondition: cfg has passed config.Validate.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	return newLogger(cfg, zapcore.Lock(os.Stderr))
}

func newLogger(cfg config.LoggingConfig, out zapcore.WriteSyncer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, out, zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", serviceName)),
	), nil
}
