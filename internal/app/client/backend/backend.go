// Package backend описывает единый контракт хранилища карточек.
// Реализаций две: локальная (key-value на устройстве) и удаленная (сервер cardkeeper).
// Какая из них обслуживает сессию, решается один раз при старте клиента.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardkeeper/internal/domain/card"
)

var (
	ErrNoSession        = errors.New("no active session")
	ErrPasswordRequired = errors.New("password is required in cloud mode")
	ErrUnknownUser      = errors.New("user not found")
	ErrBadCredentials   = errors.New("invalid email or password")
)

type Scope string

const (
	ScopeMine      Scope = "mine"
	ScopeCommunity Scope = "community"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeMine, "":
		return ScopeMine, nil
	case ScopeCommunity:
		return ScopeCommunity, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// Backend - набор операций над карточками, одинаковый для обоих хранилищ
type Backend interface {
	// GetCurrentUser возвращает nil без ошибки, если сессии нет
	GetCurrentUser(ctx context.Context) (*card.User, error)
	// GetCards возвращает карточки области видимости, новые первыми
	GetCards(ctx context.Context, ownerID string, scope Scope) ([]card.Card, error)
	// GetCard возвращает card.ErrNotFound, если записи нет
	GetCard(ctx context.Context, id string) (*card.Card, error)
	// SaveCard вставляет или обновляет запись по ее Status и обновляет ID/Status у c
	SaveCard(ctx context.Context, c *card.Card) error
	// DeleteCard идемпотентен
	DeleteCard(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, cardID, userID string) error
	DuplicateCard(ctx context.Context, c card.Card, newOwnerID string) (*card.Card, error)
}

// Authenticator - провайдер сессии
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*card.User, error)
	Register(ctx context.Context, name, email, password string) (*card.User, error)
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
	GetCurrentUser(ctx context.Context) (*card.User, error)
}

// Store объединяет оба контракта: каждая реализация предоставляет и то и другое
type Store interface {
	Backend
	Authenticator
	Close() error
}

// RequireUser возвращает текущего пользователя или ErrNoSession
func RequireUser(ctx context.Context, b Backend) (*card.User, error) {
	u, err := b.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if u == nil {
		return nil, ErrNoSession
	}
	return u, nil
}
