package card

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "cards-list",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards",
		Summary:     "Список карточек",
		Description: "Свои карточки или лента сообщества, новые первыми",
		Tags:        []string{"cards"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "cards-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Карточка по ID",
		Tags:        []string{"cards"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "cards-create",
		Method:        http.MethodPost,
		Path:          "/api/v1/cards",
		Summary:       "Создание карточки",
		Description:   "Сервер назначает UUID; владелец - вызывающий пользователь",
		Tags:          []string{"cards"},
		DefaultStatus: http.StatusCreated,
		Security:      bearer,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "cards-update",
		Method:      http.MethodPatch,
		Path:        "/api/v1/cards/{id}",
		Summary:     "Частичное обновление",
		Description: "Пишутся только присланные колонки. Не владелец может менять только liked_by.",
		Tags:        []string{"cards"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID:   "cards-delete",
		Method:        http.MethodDelete,
		Path:          "/api/v1/cards/{id}",
		Summary:       "Удаление карточки",
		Tags:          []string{"cards"},
		DefaultStatus: http.StatusNoContent,
		Security:      bearer,
		Middlewares:   h.middleware,
	}
}
