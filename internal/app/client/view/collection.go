// Package view держит копию коллекции для одного экрана (список, карточка, карта)
// и применяет к ней оптимистичные изменения.
package view

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

// DefaultConfirmWindow - сколько живет взведенное удаление
const DefaultConfirmWindow = 3 * time.Second

type Option func(*Collection)

func WithConfirmWindow(d time.Duration) Option {
	return func(c *Collection) {
		if d > 0 {
			c.confirmWindow = d
		}
	}
}

// Collection - независимая копия коллекции. Копии разных экранов
// не синхронизируются между собой до следующего Refresh.
type Collection struct {
	backend       backend.Backend
	session       card.User
	scope         backend.Scope
	log           *slog.Logger
	confirmWindow time.Duration

	mu       sync.Mutex
	cards    []card.Card
	armedID  string
	armedGen uint64
	timer    *time.Timer
}

func New(b backend.Backend, session card.User, scope backend.Scope, log *slog.Logger, opts ...Option) *Collection {
	c := &Collection{
		backend:       b,
		session:       session,
		scope:         scope,
		log:           log.With("component", "view", "scope", string(scope)),
		confirmWindow: DefaultConfirmWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collection) Scope() backend.Scope {
	return c.scope
}

func (c *Collection) Session() card.User {
	return c.session
}

// Refresh заменяет копию авторитетным чтением
func (c *Collection) Refresh(ctx context.Context) error {
	cards, err := c.backend.GetCards(ctx, c.session.ID, c.scope)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.cards = cards
	c.mu.Unlock()

	return nil
}

// Cards возвращает копию текущего содержимого
func (c *Collection) Cards() []card.Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]card.Card, len(c.cards))
	for i := range c.cards {
		out[i] = c.cards[i].Clone()
	}
	return out
}

// Visible - вторичный фильтр поверх уже загруженной копии, без обращения к бэкенду
func (c *Collection) Visible(f card.Filter) []card.Card {
	return card.Apply(c.Cards(), f)
}

// Locations - карточки с координатами для карты
func (c *Collection) Locations(f card.Filter) []card.Card {
	return card.WithLocation(c.Visible(f))
}

func (c *Collection) Get(id string) (card.Card, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(id); i >= 0 {
		return c.cards[i].Clone(), true
	}
	return card.Card{}, false
}

// mutate применяет изменение к копии сразу, затем фиксирует его в бэкенде.
// При ошибке копия целиком перечитывается, без точечного отката.
func (c *Collection) mutate(ctx context.Context, apply func(), commit func(context.Context) error) error {
	if apply != nil {
		c.mu.Lock()
		apply()
		c.mu.Unlock()
	}

	err := commit(ctx)
	if err == nil {
		return nil
	}

	c.log.Warn("durable write failed, resyncing view", "error", err)
	if rErr := c.Refresh(context.WithoutCancel(ctx)); rErr != nil {
		c.log.Error("resync failed", "error", rErr)
	}

	return err
}

// ToggleLike меняет отметку текущего пользователя
func (c *Collection) ToggleLike(ctx context.Context, cardID string) error {
	c.mu.Lock()
	found := c.indexOf(cardID) >= 0
	c.mu.Unlock()
	if !found {
		return card.ErrNotFound
	}

	return c.mutate(ctx,
		func() {
			if i := c.indexOf(cardID); i >= 0 {
				c.cards[i].LikedBy = card.ToggleLike(c.cards[i].LikedBy, c.session.ID)
			}
		},
		func(ctx context.Context) error {
			return c.backend.ToggleLike(ctx, cardID, c.session.ID)
		},
	)
}

// RequestDelete - удаление с подтверждением. Первый вызов взводит id и
// возвращает false; повторный вызов для того же id в пределах окна удаляет.
func (c *Collection) RequestDelete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 && c.cards[i].UserID != c.session.ID {
		c.mu.Unlock()
		return false, card.ErrForbidden
	}

	if c.armedID != id {
		c.armLocked(id)
		c.mu.Unlock()
		c.log.Debug("delete armed", "card_id", id, "window", c.confirmWindow)
		return false, nil
	}

	c.disarmLocked()
	c.mu.Unlock()

	err := c.mutate(ctx,
		func() {
			if i := c.indexOf(id); i >= 0 {
				c.cards = append(c.cards[:i], c.cards[i+1:]...)
			}
		},
		func(ctx context.Context) error {
			return c.backend.DeleteCard(ctx, id)
		},
	)
	if err != nil {
		return false, err
	}

	return true, nil
}

// Armed возвращает взведенный id или пустую строку
func (c *Collection) Armed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armedID
}

// Import копирует карточку в коллекцию текущего пользователя.
// Оригинал и эта копия коллекции не меняются.
func (c *Collection) Import(ctx context.Context, id string) (*card.Card, error) {
	src, ok := c.Get(id)
	if !ok {
		loaded, err := c.backend.GetCard(ctx, id)
		if err != nil {
			return nil, err
		}
		src = *loaded
	}

	var dup *card.Card
	err := c.mutate(ctx, nil, func(ctx context.Context) error {
		var err error
		dup, err = c.backend.DuplicateCard(ctx, src, c.session.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return dup, nil
}

// Close останавливает таймер подтверждения
func (c *Collection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

func (c *Collection) armLocked(id string) {
	if c.timer != nil {
		c.timer.Stop()
	}

	c.armedGen++
	gen := c.armedGen
	c.armedID = id
	c.timer = time.AfterFunc(c.confirmWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// таймер старого взвода не снимает более новый
		if c.armedGen == gen {
			c.armedID = ""
			c.timer = nil
		}
	})
}

func (c *Collection) disarmLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.armedGen++
	c.armedID = ""
}

func (c *Collection) indexOf(id string) int {
	for i := range c.cards {
		if c.cards[i].ID == id {
			return i
		}
	}
	return -1
}
