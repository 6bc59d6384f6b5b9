package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/backend/local"
	"cardkeeper/internal/app/client/backend/remote"
	"cardkeeper/internal/app/client/config"
	"cardkeeper/internal/app/client/geocode"
	"cardkeeper/internal/app/client/kv"
	"cardkeeper/internal/app/client/ocr"
	"cardkeeper/internal/app/client/view"
	"cardkeeper/internal/domain/card"
)

// MinPasswordLength - минимальная длина нового пароля
const MinPasswordLength = 6

var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// Concierge отвечает на вопросы по сохраненным карточкам
type Concierge interface {
	Ask(ctx context.Context, question string, cards []card.Card) (string, error)
}

// Deps - внешние коллабораторы приложения
type Deps struct {
	Store     backend.Store
	Geocoder  geocode.Geocoder
	Extractor ocr.Extractor
	Concierge Concierge
}

type App struct {
	config    *config.Config
	log       *slog.Logger
	store     backend.Store
	geocoder  geocode.Geocoder
	repairer  *geocode.Repairer
	extractor ocr.Extractor
	concierge Concierge
}

// New выбирает бэкенд один раз по config.CloudActive и собирает приложение
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	var (
		store backend.Store
		err   error
	)

	if cfg.CloudActive() {
		store, err = remote.New(cfg.BaseURL(), cfg.TokenPath, log,
			remote.WithCommunityLimit(cfg.CommunityLimit),
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации удаленного хранилища: %w", err)
		}
		log.Debug("cloud mode", "server", cfg.BaseURL())
	} else {
		kvStore, err := kv.Open(cfg.LocalStore, cfg.DataPath)
		if err != nil {
			return nil, fmt.Errorf("ошибка открытия локального хранилища: %w", err)
		}
		store, err = local.New(ctx, kvStore, log, local.WithLatency(cfg.LocalLatency()))
		if err != nil {
			_ = kvStore.Close()
			return nil, fmt.Errorf("ошибка инициализации локального хранилища: %w", err)
		}
		log.Debug("local mode", "store", cfg.LocalStore, "path", cfg.DataPath)
	}

	deps := Deps{
		Store:    store,
		Geocoder: geocode.NewPhoton(cfg.GeocoderURL, log, geocode.WithRateLimit(cfg.GeocodeRPS)),
	}

	if cfg.GeminiAPIKey != "" {
		gem, err := ocr.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Warn("AI features disabled", "error", err)
		} else {
			deps.Extractor = gem
			deps.Concierge = gem
		}
	}

	return NewFromDeps(cfg, log, deps), nil
}

func NewFromDeps(cfg *config.Config, log *slog.Logger, deps Deps) *App {
	a := &App{
		config:    cfg,
		log:       log,
		store:     deps.Store,
		geocoder:  deps.Geocoder,
		extractor: deps.Extractor,
		concierge: deps.Concierge,
	}
	if deps.Geocoder != nil {
		a.repairer = geocode.NewRepairer(deps.Store, deps.Geocoder, log, geocode.WithDelay(cfg.GeocodeDelay()))
	}
	return a
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) CloudActive() bool {
	return a.config.CloudActive()
}

// ==================== Auth ====================

func (a *App) CurrentUser(ctx context.Context) (*card.User, error) {
	return a.store.GetCurrentUser(ctx)
}

func (a *App) Login(ctx context.Context, email, password string) (*card.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &card.ValidationError{Field: "email", Message: "email is required"}
	}
	if a.config.CloudActive() && password == "" {
		return nil, backend.ErrPasswordRequired
	}

	return a.store.Login(ctx, email, password)
}

func (a *App) Register(ctx context.Context, name, email, password string) (*card.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, &card.ValidationError{Field: "name", Message: "name is required"}
	}
	if email == "" {
		return nil, &card.ValidationError{Field: "email", Message: "email is required"}
	}
	if a.config.CloudActive() {
		if password == "" {
			return nil, backend.ErrPasswordRequired
		}
		if utf8.RuneCountInString(password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
	}

	return a.store.Register(ctx, name, email, password)
}

func (a *App) Logout(ctx context.Context) error {
	return a.store.Logout(ctx)
}

func (a *App) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &card.ValidationError{Field: "email", Message: "email is required"}
	}
	return a.store.ResetPassword(ctx, email)
}

func (a *App) UpdatePassword(ctx context.Context, newPassword string) error {
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if _, err := backend.RequireUser(ctx, a.store); err != nil {
		return err
	}
	return a.store.UpdatePassword(ctx, newPassword)
}

// ==================== Cards ====================

// SaveCard проверяет черновик до любого обращения к хранилищу, назначает
// владельца новой карточке и по возможности дополняет координаты
func (a *App) SaveCard(ctx context.Context, draft *card.Card) error {
	if err := card.Validate(draft); err != nil {
		return err
	}

	user, err := backend.RequireUser(ctx, a.store)
	if err != nil {
		return err
	}
	if draft.UserID == "" && draft.Status == card.StatusNew {
		draft.UserID = user.ID
	}
	if draft.UserID != user.ID {
		return card.ErrForbidden
	}

	card.PrepareForSave(draft)
	if card.NeedsGeocoding(*draft) {
		a.locate(ctx, draft)
	}

	return a.store.SaveCard(ctx, draft)
}

// locate - геокодирование без блокировки сохранения
func (a *App) locate(ctx context.Context, c *card.Card) {
	if a.geocoder == nil {
		return
	}

	pt, err := a.geocoder.Geocode(ctx, c.Address)
	if err != nil {
		a.log.Warn("geocoding failed, saving without coordinates", "address", c.Address, "error", err)
		return
	}
	if pt == nil {
		a.log.Info("address not found, saving without coordinates", "address", c.Address)
		return
	}
	c.SetLocation(pt.Lat, pt.Lng)
}

// EditCard загружает карточку, применяет edit и сохраняет. Если адрес
// изменился, а координаты нет, старые координаты сбрасываются.
func (a *App) EditCard(ctx context.Context, id string, edit func(*card.Card)) (*card.Card, error) {
	c, err := a.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}

	before := c.Clone()
	edit(c)
	c.ID, c.UserID, c.Status, c.CreatedAt = before.ID, before.UserID, before.Status, before.CreatedAt

	addressChanged := strings.TrimSpace(c.Address) != strings.TrimSpace(before.Address)
	if addressChanged && sameLocation(before, *c) {
		c.ClearLocation()
	}

	if err := a.SaveCard(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func sameLocation(a, b card.Card) bool {
	eq := func(x, y *float64) bool {
		if x == nil || y == nil {
			return x == y
		}
		return *x == *y
	}
	return eq(a.Lat, b.Lat) && eq(a.Lng, b.Lng)
}

func (a *App) GetCard(ctx context.Context, id string) (*card.Card, error) {
	return a.store.GetCard(ctx, id)
}

// ScanCard распознает фото визитки и возвращает черновик для формы.
// Фото остается в ImageFront только до сохранения.
func (a *App) ScanCard(ctx context.Context, imagePath string) (card.Card, error) {
	if a.extractor == nil {
		return card.Card{}, ocr.ErrNotConfigured
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return card.Card{}, fmt.Errorf("ошибка чтения изображения: %w", err)
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return card.Card{}, fmt.Errorf("unsupported file type %s", mimeType)
	}

	extraction, err := a.extractor.Extract(ctx, image, mimeType)
	if err != nil {
		return card.Card{}, err
	}

	draft := extraction.Prefill()
	draft.ImageFront = base64.StdEncoding.EncodeToString(image)
	return draft, nil
}

// Collection открывает копию коллекции для одного экрана
func (a *App) Collection(ctx context.Context, scope backend.Scope) (*view.Collection, error) {
	user, err := backend.RequireUser(ctx, a.store)
	if err != nil {
		return nil, err
	}

	col := view.New(a.store, *user, scope, a.log, view.WithConfirmWindow(a.config.ConfirmWindowDuration()))
	if err := col.Refresh(ctx); err != nil {
		return nil, err
	}
	return col, nil
}

func (a *App) RepairLocations(ctx context.Context) (geocode.Report, error) {
	if a.repairer == nil {
		return geocode.Report{}, errors.New("geocoder is not configured")
	}

	user, err := backend.RequireUser(ctx, a.store)
	if err != nil {
		return geocode.Report{}, err
	}
	return a.repairer.Run(ctx, user.ID)
}

// Ask - вопрос консьержу по своим карточкам
func (a *App) Ask(ctx context.Context, question string) (string, error) {
	if a.concierge == nil {
		return "", ocr.ErrNotConfigured
	}
	if strings.TrimSpace(question) == "" {
		return "", &card.ValidationError{Field: "question", Message: "question is required"}
	}

	user, err := backend.RequireUser(ctx, a.store)
	if err != nil {
		return "", err
	}
	cards, err := a.store.GetCards(ctx, user.ID, backend.ScopeMine)
	if err != nil {
		return "", err
	}

	return a.concierge.Ask(ctx, question, cards)
}
