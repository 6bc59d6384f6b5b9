package user

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/server/api/http/middleware/auth"
	"cardkeeper/internal/domain/session"
	"cardkeeper/internal/domain/user"
)

type Handler struct {
	service user.Servicer
	session session.Servicer
	log     *slog.Logger
	// public - мидлвари открытых операций, private - операций с сессией
	public  huma.Middlewares
	private huma.Middlewares
}

func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, public, private huma.Middlewares) *Handler {
	return &Handler{
		service: service,
		session: session,
		log:     log.With("component", "auth_handler"),
		public:  public,
		private: private,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.resetPasswordOp(), h.resetPassword)
	huma.Register(api, h.logoutOp(), h.logout)
	huma.Register(api, h.meOp(), h.me)
	huma.Register(api, h.changePasswordOp(), h.changePassword)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*authOutput, error) {
	u, err := h.service.Register(ctx, input.Body.Name, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, h.httpError(err)
	}
	return h.openSession(ctx, u)
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*authOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, h.httpError(err)
	}
	return h.openSession(ctx, u)
}

func (h *Handler) openSession(ctx context.Context, u user.User) (*authOutput, error) {
	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session failed", "user_id", u.ID, "error", err)
		return nil, huma.Error500InternalServerError("could not create session")
	}

	return &authOutput{
		Body: AuthResponse{Token: token, User: u.Public()},
	}, nil
}

func (h *Handler) resetPassword(ctx context.Context, input *resetInput) (*struct{}, error) {
	email := strings.TrimSpace(input.Body.Email)
	if email == "" {
		return nil, huma.Error400BadRequest("email is required")
	}

	u, err := h.service.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		h.log.Debug("reset requested for unknown email")
		return nil, nil
	case err != nil:
		h.log.Error("reset lookup failed", "error", err)
		return nil, nil
	}

	token, err := h.session.IssueReset(ctx, u.ID)
	if err != nil {
		h.log.Error("issue reset failed", "user_id", u.ID, "error", err)
		return nil, nil
	}
	h.log.Debug("reset token issued", "user_id", u.ID, "token", token)

	return nil, nil
}

func (h *Handler) logout(ctx context.Context, _ *struct{}) (*struct{}, error) {
	token, ok := auth.GetToken(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.session.Revoke(ctx, token); err != nil {
		h.log.Error("revoke session failed", "error", err)
		return nil, huma.Error500InternalServerError("could not revoke session")
	}
	return nil, nil
}

func (h *Handler) me(ctx context.Context, _ *struct{}) (*meOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}
		return nil, h.httpError(err)
	}

	return &meOutput{Body: u.Public()}, nil
}

func (h *Handler) changePassword(ctx context.Context, input *changePasswordInput) (*struct{}, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.ChangePassword(ctx, userID, input.Body.Password); err != nil {
		return nil, h.httpError(err)
	}
	return nil, nil
}

// httpError переводит доменные ошибки в ответы API
func (h *Handler) httpError(err error) error {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return huma.Error400BadRequest(strings.TrimPrefix(err.Error(), user.ErrInvalidInput.Error()+": "))
	case errors.Is(err, user.ErrAlreadyExists):
		return huma.Error409Conflict("an account with this email already exists")
	case errors.Is(err, user.ErrInvalidAuth):
		return huma.Error401Unauthorized("invalid email or password")
	default:
		h.log.Error("auth request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
