package card

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

const (
	DefaultCommunityLimit = 50
	MaxCommunityLimit     = 200
)

// Servicer - серверные операции над карточками от имени вызывающего
type Servicer interface {
	List(ctx context.Context, callerID, ownerID string, community bool, limit int) ([]Payload, error)
	Get(ctx context.Context, id string) (Payload, error)
	Insert(ctx context.Context, callerID string, p Payload) (Payload, error)
	Update(ctx context.Context, callerID, id string, p Payload) (Payload, error)
	Delete(ctx context.Context, callerID, id string) error
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		log:      log.With("component", "card_service"),
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, callerID, ownerID string, community bool, limit int) ([]Payload, error) {
	if ownerID == "" {
		ownerID = callerID
	}
	if ownerID != callerID {
		return nil, ErrForbidden
	}

	if !community {
		return s.repo.ListByOwner(ctx, ownerID)
	}

	if limit <= 0 {
		limit = DefaultCommunityLimit
	}
	if limit > MaxCommunityLimit {
		limit = MaxCommunityLimit
	}
	return s.repo.ListCommunity(ctx, ownerID, limit)
}

func (s *Service) Get(ctx context.Context, id string) (Payload, error) {
	return s.repo.Get(ctx, id)
}

// Insert создает карточку с серверным UUID. Владелец - всегда вызывающий.
func (s *Service) Insert(ctx context.Context, callerID string, in Payload) (Payload, error) {
	if in.Has(ColID) {
		return nil, &ValidationError{Field: ColID, Message: "id is assigned by the server"}
	}

	p, err := Coerce(s.validate, in)
	if err != nil {
		return nil, err
	}

	name, _ := p[ColName].(string)
	if name == "" {
		return nil, &ValidationError{Field: ColName, Message: "name is required"}
	}

	if owner, ok := p[ColUserID].(string); ok && owner != "" && owner != callerID {
		return nil, ErrForbidden
	}
	p[ColUserID] = callerID

	if created, ok := p[ColCreatedAt].(int64); !ok || created == 0 {
		p[ColCreatedAt] = s.now().UnixMilli()
	}
	if t, ok := p[ColType].(string); !ok || t == "" {
		p[ColType] = string(TypeRestaurant)
	}
	p[ColID] = uuid.NewString()

	return s.repo.Insert(ctx, p)
}

// Update пишет только присланные колонки. Владелец меняет все, кроме
// user_id; остальные могут менять только liked_by и только свою отметку.
func (s *Service) Update(ctx context.Context, callerID, id string, in Payload) (Payload, error) {
	if in.Has(ColID) {
		return nil, &ValidationError{Field: ColID, Message: "id cannot be changed"}
	}

	p, err := Coerce(s.validate, in)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, _ := current[ColUserID].(string)

	if newOwner, ok := p[ColUserID]; ok {
		if newOwner != owner {
			return nil, ErrForbidden
		}
		delete(p, ColUserID)
	}

	if name, ok := p[ColName]; ok && (name == nil || name == "") {
		return nil, &ValidationError{Field: ColName, Message: "name is required"}
	}

	if owner != callerID {
		if err := likeOnly(p, current, callerID); err != nil {
			s.log.Debug("rejected patch from non-owner", "card_id", id, "user_id", callerID)
			return nil, err
		}
	}

	if len(p) == 0 {
		return current, nil
	}

	return s.repo.Update(ctx, id, p)
}

// likeOnly проверяет, что чужой пользователь меняет только свою отметку "нравится"
func likeOnly(p, current Payload, callerID string) error {
	for col := range p {
		if col != ColLikedBy {
			return ErrForbidden
		}
	}

	next, _ := p[ColLikedBy].([]string)
	prev, _ := current[ColLikedBy].([]string)
	if prev == nil {
		prev = anyStrings(current[ColLikedBy])
	}

	for _, id := range symmetricDiff(prev, next) {
		if id != callerID {
			return ErrForbidden
		}
	}
	return nil
}

func anyStrings(v any) []string {
	vals, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, x := range vals {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func symmetricDiff(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, x := range a {
		inA[x] = true
	}
	inB := make(map[string]bool, len(b))
	for _, x := range b {
		inB[x] = true
	}

	var out []string
	for x := range inA {
		if !inB[x] {
			out = append(out, x)
		}
	}
	for x := range inB {
		if !inA[x] {
			out = append(out, x)
		}
	}
	return out
}

// Delete удаляет карточку владельца. Отсутствующая карточка - не ошибка.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	current, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if owner, _ := current[ColUserID].(string); owner != callerID {
		return ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}
