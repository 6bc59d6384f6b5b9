package logger

import (
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Logger middleware для логирования входящих HTTP запросов
type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	return &Logger{
		log: log.With(slog.String("component", "http_logger")),
	}
}

// Middleware пишет одну строку на запрос; 5xx - уровнем error
func (l *Logger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		path := ctx.URL().Path

		next(ctx)

		status := ctx.Status()
		attrs := []any{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", ctx.RemoteAddr()),
		}
		if op := ctx.Operation(); op != nil {
			attrs = append(attrs, slog.String("operation", op.OperationID))
		}

		switch {
		case status >= 500:
			l.log.Error("HTTP request", attrs...)
		case status >= 400:
			l.log.Warn("HTTP request", attrs...)
		default:
			l.log.Info("HTTP request", attrs...)
		}
	}
}
