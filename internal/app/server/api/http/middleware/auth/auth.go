package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/domain/session"
)

type Auth struct {
	api     huma.API
	session session.Servicer
	log     *slog.Logger
}

func New(api huma.API, session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		api:     api,
		session: session,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const (
	userIDKey contextKey = "userID"
	tokenKey  contextKey = "token"
)

const bearerPrefix = "Bearer "

// Middleware проверяет bearer-токен и кладет id пользователя в контекст
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		header := ctx.Header("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			a.log.Debug("missing bearer token", "path", ctx.URL().Path)
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}
		token := strings.TrimSpace(header[len(bearerPrefix):])

		userID, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			a.log.Debug("session rejected", "error", err)
			_ = huma.WriteErr(a.api, ctx, http.StatusUnauthorized, "Unauthorized")
			return
		}

		newCtx := WithToken(WithUserID(ctx.Context(), userID), token)
		next(huma.WithContext(ctx, newCtx))
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
