package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	Validate(ctx context.Context, tokenHash string) (string, error)
	Revoke(ctx context.Context, tokenHash string) error
	CreateReset(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
}
