package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Register(ctx context.Context, name, email, password string) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	Get(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	ChangePassword(ctx context.Context, id, password string) error
}

type Service struct {
	repo      Repository
	validator Validator
	log       *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, validator Validator, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		log:       log.With("component", "user_service"),
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	if err := s.validator.ValidateRegister(name, email, password); err != nil {
		s.log.Debug("validation failed", "email", email, "error", err)
		return User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("хэш пароля: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	if err := s.validator.ValidateEmail(email); err != nil {
		return User{}, ErrInvalidAuth
	}
	if password == "" {
		return User{}, ErrInvalidAuth
	}

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidAuth
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidAuth
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, normalizeEmail(email))
}

func (s *Service) ChangePassword(ctx context.Context, id, password string) error {
	if err := s.validator.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("хэш пароля: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, string(hash))
}
