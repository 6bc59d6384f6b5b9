// Package remote - бэкенд поверх HTTP API сервера cardkeeper.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

// DefaultCommunityLimit - потолок выдачи чужих карточек; это ограничение
// реализации, а не продуктовое правило
const DefaultCommunityLimit = 50

type Option func(*Backend)

func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) {
		b.httpClient = c
	}
}

func WithCommunityLimit(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.communityLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

type Backend struct {
	api            *httpClient
	httpClient     *http.Client
	log            *slog.Logger
	tokenPath      string
	communityLimit int
	now            func() time.Time

	schemaOnce sync.Once
	schema     uint
}

var _ backend.Store = (*Backend)(nil)

// New создает удаленный бэкенд. tokenPath - файл, где хранится токен сессии;
// пустой путь означает хранение только в памяти.
func New(baseURL, tokenPath string, log *slog.Logger, opts ...Option) (*Backend, error) {
	if baseURL == "" {
		return nil, errors.New("remote backend requires a server address")
	}

	b := &Backend{
		log:            log.With("component", "remote_backend"),
		tokenPath:      tokenPath,
		communityLimit: DefaultCommunityLimit,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.api = newHTTPClient(baseURL, b.httpClient, b.log)

	token, err := b.loadToken()
	if err != nil {
		return nil, err
	}
	b.api.setToken(token)

	return b, nil
}

func (b *Backend) Close() error {
	b.api.client.CloseIdleConnections()
	return nil
}

type cardsResponse struct {
	Cards []card.Row `json:"cards"`
}

type authRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  card.User `json:"user"`
}

// ==================== Cards ====================

func (b *Backend) GetCards(ctx context.Context, ownerID string, scope backend.Scope) ([]card.Card, error) {
	q := url.Values{}
	q.Set("owner_id", ownerID)
	q.Set("scope", string(scope))
	if scope == backend.ScopeCommunity {
		q.Set("limit", strconv.Itoa(b.communityLimit))
	}

	var resp cardsResponse
	if err := b.api.call(ctx, http.MethodGet, "/api/v1/cards?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("ошибка получения карточек: %w", err)
	}

	out := make([]card.Card, 0, len(resp.Cards))
	for _, row := range resp.Cards {
		out = append(out, row.ToCard())
	}
	card.SortNewestFirst(out)

	return out, nil
}

func (b *Backend) GetCard(ctx context.Context, id string) (*card.Card, error) {
	var row card.Row
	if err := b.api.call(ctx, http.MethodGet, "/api/v1/cards/"+url.PathEscape(id), nil, &row); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, card.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения карточки: %w", err)
	}

	c := row.ToCard()
	return &c, nil
}

// SaveCard вставляет карточку, если она еще не сохранена на сервере,
// иначе обновляет ее по id
func (b *Backend) SaveCard(ctx context.Context, c *card.Card) error {
	if err := card.Validate(c); err != nil {
		return err
	}

	toStore := c.Clone()
	card.PrepareForSave(&toStore)
	if toStore.CreatedAt == 0 {
		toStore.CreatedAt = b.now().UnixMilli()
	}
	payload := card.ToPayload(toStore)

	var send sendFunc
	if toStore.Status == card.StatusRemote {
		// владелец не меняется при обновлении
		delete(payload, card.ColUserID)
		send = b.patch(toStore.ID)
	} else {
		send = b.insert
	}

	row, dropped, err := b.write(ctx, payload, send)
	if err != nil {
		return fmt.Errorf("ошибка сохранения карточки: %w", err)
	}

	c.ID = row.ID
	c.CreatedAt = toStore.CreatedAt
	if row.CreatedAt != 0 {
		c.CreatedAt = row.CreatedAt
	}
	c.ImageFront = ""
	c.Status = card.StatusRemote
	clearColumns(c, dropped)

	return nil
}

func (b *Backend) insert(ctx context.Context, payload card.Payload) (*card.Row, error) {
	var row card.Row
	if err := b.api.call(ctx, http.MethodPost, "/api/v1/cards", payload, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (b *Backend) patch(id string) sendFunc {
	return func(ctx context.Context, payload card.Payload) (*card.Row, error) {
		var row card.Row
		if err := b.api.call(ctx, http.MethodPatch, "/api/v1/cards/"+url.PathEscape(id), payload, &row); err != nil {
			return nil, err
		}
		return &row, nil
	}
}

func (b *Backend) DeleteCard(ctx context.Context, id string) error {
	err := b.api.call(ctx, http.MethodDelete, "/api/v1/cards/"+url.PathEscape(id), nil, nil)
	if err != nil && !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("ошибка удаления карточки: %w", err)
	}
	return nil
}

// ToggleLike читает liked_by, меняет членство и записывает массив целиком.
// Операция не атомарна: при одновременных изменениях побеждает последняя запись.
func (b *Backend) ToggleLike(ctx context.Context, cardID, userID string) error {
	current, err := b.GetCard(ctx, cardID)
	if err != nil {
		return err
	}

	payload := card.Payload{card.ColLikedBy: card.ToggleLike(current.LikedBy, userID)}
	if _, _, err := b.write(ctx, payload, b.patch(cardID)); err != nil {
		return fmt.Errorf("ошибка изменения лайка: %w", err)
	}

	return nil
}

func (b *Backend) DuplicateCard(ctx context.Context, c card.Card, newOwnerID string) (*card.Card, error) {
	dup := card.Duplicate(c, newOwnerID, b.now())
	if err := b.SaveCard(ctx, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

// ==================== Auth ====================

func (b *Backend) GetCurrentUser(ctx context.Context) (*card.User, error) {
	if b.api.token == "" {
		return nil, nil
	}

	var u card.User
	if err := b.api.call(ctx, http.MethodGet, "/api/v1/auth/me", nil, &u); err != nil {
		if isStatus(err, http.StatusUnauthorized) {
			b.log.Info("session expired, clearing token")
			return nil, b.clearToken()
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}

	return &u, nil
}

func (b *Backend) Login(ctx context.Context, email, password string) (*card.User, error) {
	if password == "" {
		return nil, backend.ErrPasswordRequired
	}
	return b.authenticate(ctx, "/api/v1/auth/login", authRequest{Email: email, Password: password})
}

func (b *Backend) Register(ctx context.Context, name, email, password string) (*card.User, error) {
	if password == "" {
		return nil, backend.ErrPasswordRequired
	}
	return b.authenticate(ctx, "/api/v1/auth/register", authRequest{Name: name, Email: email, Password: password})
}

func (b *Backend) authenticate(ctx context.Context, path string, req authRequest) (*card.User, error) {
	req.Email = strings.TrimSpace(req.Email)

	var resp authResponse
	if err := b.api.call(ctx, http.MethodPost, path, req, &resp); err != nil {
		if isStatus(err, http.StatusUnauthorized) {
			return nil, backend.ErrBadCredentials
		}
		return nil, fmt.Errorf("ошибка аутентификации: %w", err)
	}
	if err := b.saveToken(resp.Token); err != nil {
		return nil, err
	}

	b.log.Info("authenticated", "user_id", resp.User.ID)
	return &resp.User, nil
}

func (b *Backend) Logout(ctx context.Context) error {
	if b.api.token == "" {
		return nil
	}

	err := b.api.call(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if clearErr := b.clearToken(); clearErr != nil {
		return clearErr
	}
	if err != nil && !isStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("ошибка выхода: %w", err)
	}

	return nil
}

func (b *Backend) ResetPassword(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{Email: strings.TrimSpace(email)}

	if err := b.api.call(ctx, http.MethodPost, "/api/v1/auth/reset-password", req, nil); err != nil {
		return fmt.Errorf("ошибка сброса пароля: %w", err)
	}
	return nil
}

func (b *Backend) UpdatePassword(ctx context.Context, newPassword string) error {
	req := struct {
		Password string `json:"password"`
	}{Password: newPassword}

	if err := b.api.call(ctx, http.MethodPost, "/api/v1/auth/change-password", req, nil); err != nil {
		return fmt.Errorf("ошибка смены пароля: %w", err)
	}
	return nil
}

// ==================== token ====================

func (b *Backend) loadToken() (string, error) {
	if b.tokenPath == "" {
		return "", nil
	}

	data, err := os.ReadFile(b.tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func (b *Backend) saveToken(token string) error {
	b.api.setToken(token)
	if b.tokenPath == "" {
		return nil
	}
	if err := os.WriteFile(b.tokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("ошибка сохранения токена: %w", err)
	}
	return nil
}

func (b *Backend) clearToken() error {
	b.api.setToken("")
	if b.tokenPath == "" {
		return nil
	}
	if err := os.Remove(b.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	return nil
}
