package card

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/server/api/http/middleware/auth"
	"cardkeeper/internal/domain/card"
)

type Handler struct {
	service    card.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service card.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "card_handler"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	rows, err := h.service.List(ctx, userID, input.OwnerID, input.Scope == "community", input.Limit)
	if err != nil {
		return nil, h.httpError(err)
	}
	if rows == nil {
		rows = []card.Payload{}
	}

	return &listOutput{Body: ListResponse{Cards: rows}}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*rowOutput, error) {
	if _, ok := auth.GetUserID(ctx); !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	row, err := h.service.Get(ctx, input.ID)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &rowOutput{Body: row}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*rowOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	row, err := h.service.Insert(ctx, userID, input.Body)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &rowOutput{Body: row}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*rowOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	row, err := h.service.Update(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, h.httpError(err)
	}
	return &rowOutput{Body: row}, nil
}

func (h *Handler) delete(ctx context.Context, input *findInput) (*struct{}, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Delete(ctx, userID, input.ID); err != nil {
		return nil, h.httpError(err)
	}
	return nil, nil
}

// httpError: ColumnError отдается как 422 с исходным текстом базы,
// клиент по нему находит отсутствующую колонку
func (h *Handler) httpError(err error) error {
	var (
		vErr   *card.ValidationError
		colErr *card.ColumnError
	)

	switch {
	case errors.As(err, &vErr):
		return huma.Error400BadRequest(vErr.Error())
	case errors.As(err, &colErr):
		return huma.Error422UnprocessableEntity(colErr.Message)
	case errors.Is(err, card.ErrNotFound):
		return huma.Error404NotFound("card not found")
	case errors.Is(err, card.ErrForbidden):
		return huma.Error403Forbidden("card belongs to another user")
	default:
		h.log.Error("card request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
