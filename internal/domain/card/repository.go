package card

import (
	"context"
)

// Repository - авторитетное хранилище карточек на сервере. Строки читаются
// и пишутся как Payload, чтобы отставшая схема давала ColumnError,
// а не молча теряла поля.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Payload, error)
	ListCommunity(ctx context.Context, excludeOwnerID string, limit int) ([]Payload, error)
	Get(ctx context.Context, id string) (Payload, error)
	Insert(ctx context.Context, p Payload) (Payload, error)
	Update(ctx context.Context, id string, p Payload) (Payload, error)
	Delete(ctx context.Context, id string) error
}
