package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultResetTTL = time.Hour
)

var ErrInvalidSession = errors.New("invalid session")

type Servicer interface {
	Create(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	IssueReset(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo     Repository
	ttl      time.Duration
	resetTTL time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, ttl, resetTTL time.Duration, log *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Service{
		repo:     repo,
		ttl:      ttl,
		resetTTL: resetTTL,
		log:      log.With("component", "session_service"),
		now:      time.Now,
	}
}

func newToken() (string, string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	token := base64.URLEncoding.EncodeToString(tokenBytes)
	return token, hashToken(token), nil
}

// hashToken - в базе хранится только SHA-256 токена
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *Service) Create(ctx context.Context, userID string) (string, error) {
	token, hash, err := newToken()
	if err != nil {
		return "", err
	}

	if err := s.repo.Create(ctx, userID, hash, s.now().Add(s.ttl)); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	return token, nil
}

func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}

	userID, err := s.repo.Validate(ctx, hashToken(token))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return userID, nil
}

func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.repo.Revoke(ctx, hashToken(token))
}

// IssueReset создает одноразовый токен сброса пароля. Доставка токена
// пользователю не входит в сервер, он только пишется в лог.
func (s *Service) IssueReset(ctx context.Context, userID string) (string, error) {
	token, hash, err := newToken()
	if err != nil {
		return "", err
	}

	if err := s.repo.CreateReset(ctx, userID, hash, s.now().Add(s.resetTTL)); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}

	s.log.Info("password reset issued", "user_id", userID)
	return token, nil
}
