package engine

import (
	"time"

	"go.uber.org/zap"
)

// LoggerHook logs every finished model call with its latency and token usage.
func LoggerHook(l *zap.Logger) CallHook {
	if l == nil {
		l = zap.NewNop()
	}
	return func(schema string, elapsed time.Duration, usage Usage, err error) {
		if err != nil {
			l.Warn("[Caller] model call failed",
				zap.String("schema", schema),
				zap.Duration("elapsed", elapsed),
				zap.Bool("validation", IsResponseValidation(err)),
				zap.Error(err))
			return
		}
		l.Info("[Caller] model call finished",
			zap.String("schema", schema),
			zap.Duration("elapsed", elapsed),
			zap.Int("prompt_tokens", usage.Prompt),
			zap.Int("completion_tokens", usage.Completion),
			zap.Int("total_tokens", usage.Total))
	}
}
