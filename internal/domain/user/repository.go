package user

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
