// Package logging builds the zap logger shared by the service.
package logging

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Props selects the logger flavour.
type Props struct {
	Production bool
	Debug      bool
}

// New returns a JSON logger in production and a console logger otherwise.
// Debug lowers the level to debug in both.
func New(p Props) (*zap.Logger, error) {
	var cfg zap.Config
	if p.Production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if p.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if p.Production {
		zap.ReplaceGlobals(logger)
		logger.Info("[Logger] Starting Logger with Prod Config")
	}
	return logger, nil
}

// FromContext decorates logger with the request id chi put on ctx, if any.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
