package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// SchemaProber сообщает примененную версию миграций
type SchemaProber interface {
	SchemaVersion(ctx context.Context) (uint, bool, error)
}

type Handler struct {
	prober     SchemaProber
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(prober SchemaProber, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		prober:     prober,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	version, dirty, err := h.prober.SchemaVersion(ctx)
	if err != nil {
		h.log.Error("schema probe failed", "error", err)
		return nil, huma.Error503ServiceUnavailable("database unavailable")
	}

	status := "OK"
	if dirty {
		status = "DEGRADED"
	}

	return &Output{
		Body: Response{
			Status:        status,
			SchemaVersion: version,
			Dirty:         dirty,
		},
	}, nil
}
