package user

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) registerOp() huma.Operation {
	return huma.Operation{
		OperationID:   "auth-register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Регистрация",
		Description:   "Создает пользователя и сразу открывает сессию",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.public,
	}
}

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Вход по email и паролю",
		Tags:        []string{"auth"},
		Middlewares: h.public,
	}
}

func (h *Handler) resetPasswordOp() huma.Operation {
	return huma.Operation{
		OperationID:   "auth-reset-password",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/reset-password",
		Summary:       "Запрос сброса пароля",
		Description:   "Всегда отвечает 202, чтобы не раскрывать существование аккаунта",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   h.public,
	}
}

func (h *Handler) logoutOp() huma.Operation {
	return huma.Operation{
		OperationID:   "auth-logout",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/logout",
		Summary:       "Завершение текущей сессии",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Middlewares:   h.private,
	}
}

func (h *Handler) meOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Текущий пользователь",
		Tags:        []string{"auth"},
		Security:    bearer,
		Middlewares: h.private,
	}
}

func (h *Handler) changePasswordOp() huma.Operation {
	return huma.Operation{
		OperationID:   "auth-change-password",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/change-password",
		Summary:       "Смена пароля",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Middlewares:   h.private,
	}
}
