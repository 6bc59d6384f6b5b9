// Package local - бэкенд без сервера: единственный источник правды
// хранится в key-value хранилище устройства.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/kv"
	"cardkeeper/internal/domain/card"
)

const (
	UsersKey       = "cardkeeper_users"
	CardsKey       = "cardkeeper_cards"
	CurrentUserKey = "cardkeeper_current_user"

	DemoEmail = "demo@example.com"
)

// ErrCorrupted - значение в хранилище не читается как JSON
var ErrCorrupted = errors.New("local store value is corrupted")

type Option func(*Backend)

// WithLatency задает искусственную задержку каждого вызова
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		b.latency = d
	}
}

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

type Backend struct {
	store   kv.Store
	log     *slog.Logger
	latency time.Duration
	now     func() time.Time
	// mu сериализует read-modify-write ключей внутри процесса
	mu sync.Mutex
}

var _ backend.Store = (*Backend)(nil)

func New(ctx context.Context, store kv.Store, log *slog.Logger, opts ...Option) (*Backend, error) {
	b := &Backend{
		store: store,
		log:   log.With("component", "local_backend"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.seed(ctx); err != nil {
		return nil, fmt.Errorf("seed local store: %w", err)
	}

	return b, nil
}

// seed добавляет демо-пользователя при первом запуске
func (b *Backend) seed(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, DemoEmail) {
			return nil
		}
	}

	users = append(users, card.User{
		ID:     "user_1",
		Name:   "Mario Rossi",
		Email:  DemoEmail,
		Avatar: card.AvatarURL("Mario Rossi"),
	})
	b.log.Debug("demo user seeded", "email", DemoEmail)
	return b.saveJSON(ctx, UsersKey, users)
}

func (b *Backend) Close() error {
	return b.store.Close()
}

// ==================== Cards ====================

func (b *Backend) GetCards(ctx context.Context, ownerID string, scope backend.Scope) ([]card.Card, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	all, err := b.loadCards(ctx)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]card.Card, 0, len(all))
	for _, c := range all {
		mine := c.UserID == ownerID
		if (scope == backend.ScopeMine) != mine {
			continue
		}
		out = append(out, readBoundary(c))
	}
	card.SortNewestFirst(out)

	return out, nil
}

func (b *Backend) GetCard(ctx context.Context, id string) (*card.Card, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	all, err := b.loadCards(ctx)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, c := range all {
		if c.ID == id {
			found := readBoundary(c)
			return &found, nil
		}
	}

	return nil, card.ErrNotFound
}

func (b *Backend) SaveCard(ctx context.Context, c *card.Card) error {
	if err := card.Validate(c); err != nil {
		return err
	}
	if err := b.delay(ctx); err != nil {
		return err
	}

	toStore := c.Clone()
	card.PrepareForSave(&toStore)
	if toStore.ID == "" {
		toStore.ID = card.NewID(b.now())
	}
	if toStore.CreatedAt == 0 {
		toStore.CreatedAt = b.now().UnixMilli()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.loadCards(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range all {
		if all[i].ID == toStore.ID {
			all[i] = toStore
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, toStore)
	}

	if err := b.saveJSON(ctx, CardsKey, all); err != nil {
		return err
	}

	c.ID = toStore.ID
	c.CreatedAt = toStore.CreatedAt
	c.ImageFront = ""
	c.Status = card.StatusLocal
	return nil
}

func (b *Backend) DeleteCard(ctx context.Context, id string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.loadCards(ctx)
	if err != nil {
		return err
	}

	filtered := all[:0]
	for _, c := range all {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == len(all) {
		return nil
	}

	return b.saveJSON(ctx, CardsKey, filtered)
}

func (b *Backend) ToggleLike(ctx context.Context, cardID, userID string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.loadCards(ctx)
	if err != nil {
		return err
	}

	for i := range all {
		if all[i].ID == cardID {
			all[i].LikedBy = card.ToggleLike(all[i].LikedBy, userID)
			return b.saveJSON(ctx, CardsKey, all)
		}
	}

	return card.ErrNotFound
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
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	data, err := b.store.Get(ctx, CurrentUserKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read current user: %w", err)
	}

	var u card.User
	if err := json.Unmarshal(data, &u); err != nil {
		b.log.Warn("corrupted current user pointer, ignoring", "error", err)
		return nil, nil
	}

	return &u, nil
}

// Login в локальном режиме ищет пользователя только по email: пароля нет
func (b *Backend) Login(ctx context.Context, email, _ string) (*card.User, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, u := range users {
		if strings.ToLower(u.Email) == normalized {
			if err := b.saveJSON(ctx, CurrentUserKey, u); err != nil {
				return nil, err
			}
			return &u, nil
		}
	}

	return nil, backend.ErrUnknownUser
}

func (b *Backend) Register(ctx context.Context, name, email, _ string) (*card.User, error) {
	if err := b.delay(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	users, err := b.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			if err := b.saveJSON(ctx, CurrentUserKey, u); err != nil {
				return nil, err
			}
			return &u, nil
		}
	}

	u := card.User{
		ID:     "user_" + strconv.FormatInt(b.now().UnixMilli(), 10),
		Name:   name,
		Email:  email,
		Avatar: card.AvatarURL(name),
	}
	users = append(users, u)

	if err := b.saveJSON(ctx, UsersKey, users); err != nil {
		return nil, err
	}
	if err := b.saveJSON(ctx, CurrentUserKey, u); err != nil {
		return nil, err
	}

	b.log.Info("local user registered", "user_id", u.ID)
	return &u, nil
}

func (b *Backend) Logout(ctx context.Context) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	return b.store.Delete(ctx, CurrentUserKey)
}

func (b *Backend) ResetPassword(ctx context.Context, email string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	b.log.Info("password reset is not available in local mode", "email", email)
	return nil
}

func (b *Backend) UpdatePassword(ctx context.Context, _ string) error {
	if err := b.delay(ctx); err != nil {
		return err
	}
	b.log.Info("password update is not available in local mode")
	return nil
}

// ==================== helpers ====================

func readBoundary(c card.Card) card.Card {
	out := c.Clone()
	card.Normalize(&out)
	out.Status = card.StatusLocal
	return out
}

func (b *Backend) delay(ctx context.Context) error {
	if b.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(b.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (b *Backend) loadCards(ctx context.Context) ([]card.Card, error) {
	var cards []card.Card
	if err := b.loadJSON(ctx, CardsKey, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (b *Backend) loadUsers(ctx context.Context) ([]card.User, error) {
	var users []card.User
	if err := b.loadJSON(ctx, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (b *Backend) loadJSON(ctx context.Context, key string, dst any) error {
	data, err := b.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	// битое значение не перезаписываем: следующая запись потеряла бы все данные
	if err := json.Unmarshal(data, dst); err != nil {
		b.log.Error("corrupted local value", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %v", ErrCorrupted, key, err)
	}
	return nil
}

func (b *Backend) saveJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := b.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
