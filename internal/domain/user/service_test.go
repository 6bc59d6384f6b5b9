package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func newService(repo Repository) *Service {
	return NewService(repo, NewValidator(), slog.Default())
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u User) bool {
		return u.ID != "" && u.Email == "anna@example.com" && u.Name == "Anna" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
	})).Return(nil)

	u, err := service.Register(context.Background(), " Anna ", "Anna@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email)
	assert.Len(t, u.ID, 36)

	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "empty name", userName: " ", email: "a@b.it", password: "secret1"},
		{name: "bad email", userName: "Anna", email: "anna", password: "secret1"},
		{name: "short password", userName: "Anna", email: "a@b.it", password: "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newService(mockRepo)

			_, err := service.Register(context.Background(), tt.userName, tt.email, tt.password)

			assert.ErrorIs(t, err, ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Register_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.Anything).Return(ErrAlreadyExists)

	_, err := service.Register(context.Background(), "Anna", "anna@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestService_Authenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := User{ID: "u1", Email: "anna@example.com", PasswordHash: string(hash)}

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(stored, nil)

		u, err := newService(mockRepo).Authenticate(context.Background(), "ANNA@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, stored, u)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(stored, nil)

		_, err := newService(mockRepo).Authenticate(context.Background(), "anna@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("unknown user looks like bad credentials", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(User{}, ErrNotFound)

		_, err := newService(mockRepo).Authenticate(context.Background(), "ghost@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("storage failure passes through", func(t *testing.T) {
		mockRepo := new(MockRepository)
		mockRepo.On("FindByEmail", mock.Anything, "anna@example.com").Return(User{}, errors.New("db down"))

		_, err := newService(mockRepo).Authenticate(context.Background(), "anna@example.com", "correct-horse")
		assert.EqualError(t, err, "db down")
	})

	t.Run("empty password", func(t *testing.T) {
		mockRepo := new(MockRepository)

		_, err := newService(mockRepo).Authenticate(context.Background(), "anna@example.com", "")
		assert.ErrorIs(t, err, ErrInvalidAuth)
		mockRepo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}

func TestService_ChangePassword(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newService(mockRepo)

	mockRepo.On("UpdatePassword", mock.Anything, "u1", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newsecret")) == nil
	})).Return(nil)

	require.NoError(t, service.ChangePassword(context.Background(), "u1", "newsecret"))
	assert.ErrorIs(t, service.ChangePassword(context.Background(), "u1", "short"), ErrInvalidInput)

	mockRepo.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestUser_Public(t *testing.T) {
	u := User{ID: "u1", Name: "Mario Rossi", Email: "m@r.it", PasswordHash: "x"}

	pub := u.Public()

	assert.Equal(t, "u1", pub.ID)
	assert.Equal(t, "Mario Rossi", pub.Name)
	assert.NotEmpty(t, pub.Avatar)
}
