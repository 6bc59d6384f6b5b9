package logger

import (
	"io"
	"os"

	"golang.org/x/exp/slog"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New создает логгер для окружения: local - цветной текст, dev - JSON c DEBUG,
// prod и прочие - JSON с INFO
func New(env string) *slog.Logger {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, w io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case EnvLocal:
		log = setupPrettySlogTo(w)
	case EnvDev:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	return setupPrettySlogTo(os.Stdout)
}

func setupPrettySlogTo(w io.Writer) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return slog.New(opts.NewPrettyHandler(w))
}

// NewQuiet - логгер для интерактивных команд: только WARN и выше, в stderr,
// чтобы не смешиваться с выводом команды
func NewQuiet(env string) *slog.Logger {
	if env == EnvLocal {
		opts := PrettyHandlerOptions{
			SlogOpts: &slog.HandlerOptions{Level: slog.LevelWarn},
		}
		return slog.New(opts.NewPrettyHandler(os.Stderr))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
