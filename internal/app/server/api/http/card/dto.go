package card

import "cardkeeper/internal/domain/card"

type listInput struct {
	OwnerID string `query:"owner_id" doc:"Владелец; по умолчанию текущий пользователь"`
	Scope   string `query:"scope" enum:"mine,community" default:"mine" doc:"mine - свои карточки, community - чужие"`
	Limit   int    `query:"limit" minimum:"0" maximum:"200" doc:"Лимит для community"`
}

type listOutput struct {
	Body ListResponse
}

type ListResponse struct {
	Cards []card.Payload `json:"cards"`
}

type findInput struct {
	ID string `path:"id" doc:"ID карточки"`
}

// строки отдаются как есть: набор колонок зависит от версии схемы
type rowOutput struct {
	Body card.Payload
}

type createInput struct {
	Body card.Payload
}

type updateInput struct {
	ID   string `path:"id" doc:"ID карточки"`
	Body card.Payload
}
