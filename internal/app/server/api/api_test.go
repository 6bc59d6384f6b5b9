package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/backend/remote"
	"cardkeeper/internal/domain/card"
	"cardkeeper/internal/domain/session"
	"cardkeeper/internal/domain/user"
)

// ==================== in-memory repositories ====================

type memUsers struct {
	mu   sync.Mutex
	byID map[string]user.User
}

func (r *memUsers) Create(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return user.ErrAlreadyExists
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	r.byID[id] = u
	return nil
}

type memSession struct {
	userID    string
	expiresAt time.Time
}

type memSessions struct {
	mu     sync.Mutex
	tokens map[string]memSession
	resets int
}

func (r *memSessions) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenHash] = memSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *memSessions) Validate(_ context.Context, tokenHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.tokens[tokenHash]
	if !ok || time.Now().After(s.expiresAt) {
		return "", fmt.Errorf("invalid session")
	}
	return s.userID, nil
}

func (r *memSessions) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenHash)
	return nil
}

func (r *memSessions) CreateReset(context.Context, string, string, time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	return nil
}

// memCards ведет себя как таблица, в которой нет колонок из missing
type memCards struct {
	mu      sync.Mutex
	rows    map[string]card.Payload
	missing map[string]bool
}

func (r *memCards) check(p card.Payload) error {
	cols := make([]string, 0, len(p))
	for col := range p {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if r.missing[col] {
			return &card.ColumnError{Message: fmt.Sprintf(`column "%s" of relation "business_cards" does not exist`, col)}
		}
	}
	return nil
}

func (r *memCards) list(keep func(card.Payload) bool, limit int) []card.Payload {
	var out []card.Payload
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][card.ColCreatedAt].(int64) > out[j][card.ColCreatedAt].(int64)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *memCards) ListByOwner(_ context.Context, ownerID string) ([]card.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(p card.Payload) bool { return p[card.ColUserID] == ownerID }, 0), nil
}

func (r *memCards) ListCommunity(_ context.Context, excludeOwnerID string, limit int) ([]card.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(p card.Payload) bool { return p[card.ColUserID] != excludeOwnerID }, limit), nil
}

func (r *memCards) Get(_ context.Context, id string) (card.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, card.ErrNotFound
	}
	return row.Clone(), nil
}

func (r *memCards) Insert(_ context.Context, p card.Payload) (card.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(p); err != nil {
		return nil, err
	}
	r.rows[p[card.ColID].(string)] = p.Clone()
	return p.Clone(), nil
}

func (r *memCards) Update(_ context.Context, id string, p card.Payload) (card.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(p); err != nil {
		return nil, err
	}
	row, ok := r.rows[id]
	if !ok {
		return nil, card.ErrNotFound
	}
	for k, v := range p {
		row[k] = v
	}
	return row.Clone(), nil
}

func (r *memCards) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

type stubSchema struct{}

func (stubSchema) SchemaVersion(context.Context) (uint, bool, error) { return 2, false, nil }

// ==================== harness ====================

type testServer struct {
	*httptest.Server
	cards    *memCards
	sessions *memSessions
}

func newTestServer(t *testing.T, missing ...string) *testServer {
	t.Helper()
	log := slog.Default()

	cards := &memCards{rows: map[string]card.Payload{}, missing: map[string]bool{}}
	for _, col := range missing {
		cards.missing[col] = true
	}
	sessions := &memSessions{tokens: map[string]memSession{}}

	services := Services{
		Schema:   stubSchema{},
		Users:    user.NewService(&memUsers{byID: map[string]user.User{}}, user.NewValidator(), log),
		Sessions: session.NewService(sessions, time.Hour, time.Hour, log),
		Cards:    card.NewService(cards, log),
	}

	srv := httptest.NewServer(NewWithServices(services, prometheus.NewRegistry(), log))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, cards: cards, sessions: sessions}
}

func (s *testServer) client(t *testing.T) *remote.Backend {
	t.Helper()
	b, err := remote.New(s.URL, filepath.Join(t.TempDir(), "token"), slog.Default())
	require.NoError(t, err)
	return b
}

func (s *testServer) signUp(t *testing.T, name, email string) (*remote.Backend, *card.User) {
	t.Helper()
	b := s.client(t)
	u, err := b.Register(context.Background(), name, email, "secret1")
	require.NoError(t, err)
	return b, u
}

// ==================== tests ====================

func TestAPI_CardLifecycleThroughRemoteBackend(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	anna, annaUser := srv.signUp(t, "Anna", "anna@example.com")
	bob, bobUser := srv.signUp(t, "Bob", "bob@example.com")

	draft := &card.Card{
		Name:    "Trattoria da Mario",
		Type:    card.TypeRestaurant,
		Address: "Via Roma 1, Milano",
		Tags:    []string{"pesce"},
		Rating:  4,
		UserID:  annaUser.ID,
	}
	draft.SetLocation(45.46, 9.19)
	require.NoError(t, anna.SaveCard(ctx, draft))

	assert.Equal(t, card.StatusRemote, draft.Status)
	assert.Len(t, draft.ID, 36)

	mine, err := anna.GetCards(ctx, annaUser.ID, backend.ScopeMine)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Trattoria da Mario", mine[0].Name)
	assert.True(t, card.HasValidLocation(mine[0]))

	community, err := bob.GetCards(ctx, bobUser.ID, backend.ScopeCommunity)
	require.NoError(t, err)
	require.Len(t, community, 1)

	// чужой пользователь может только лайкнуть
	require.NoError(t, bob.ToggleLike(ctx, draft.ID, bobUser.ID))
	liked, err := anna.GetCard(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bobUser.ID}, liked.LikedBy)

	assert.ErrorIs(t, bob.DeleteCard(ctx, draft.ID), card.ErrForbidden)

	hijack := liked.Clone()
	hijack.Name = "Bob's now"
	assert.ErrorIs(t, bob.SaveCard(ctx, &hijack), card.ErrForbidden)

	// owner edits
	liked.Notes = "ottima carbonara"
	require.NoError(t, anna.SaveCard(ctx, liked))

	dup, err := bob.DuplicateCard(ctx, *liked, bobUser.ID)
	require.NoError(t, err)
	assert.NotEqual(t, draft.ID, dup.ID)
	assert.Equal(t, bobUser.ID, dup.UserID)

	require.NoError(t, anna.DeleteCard(ctx, draft.ID))
	require.NoError(t, anna.DeleteCard(ctx, draft.ID))
	_, err = anna.GetCard(ctx, draft.ID)
	assert.ErrorIs(t, err, card.ErrNotFound)
}

func TestAPI_SchemaDriftIsRepairedByClient(t *testing.T) {
	srv := newTestServer(t, card.ColBipConvention)
	ctx := context.Background()
	anna, annaUser := srv.signUp(t, "Anna", "anna@example.com")

	yes := true
	draft := &card.Card{Name: "Hotel Sole", Type: card.TypeHotel, BipConvention: &yes, UserID: annaUser.ID}
	require.NoError(t, anna.SaveCard(ctx, draft))

	assert.Nil(t, draft.BipConvention)
	stored := srv.cards.rows[draft.ID]
	assert.NotContains(t, stored, card.ColBipConvention)
	assert.Equal(t, "Hotel", stored[card.ColType])
}

func TestAPI_Auth(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	t.Run("duplicate email", func(t *testing.T) {
		srv.signUp(t, "Anna", "dup@example.com")
		_, err := srv.client(t).Register(ctx, "Anna 2", "dup@example.com", "secret1")
		var apiErr *remote.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
	})

	t.Run("wrong password", func(t *testing.T) {
		srv.signUp(t, "Carla", "carla@example.com")
		_, err := srv.client(t).Login(ctx, "carla@example.com", "nope-nope")
		assert.ErrorIs(t, err, backend.ErrBadCredentials)
	})

	t.Run("short password rejected by server", func(t *testing.T) {
		_, err := srv.client(t).Register(ctx, "Dario", "dario@example.com", "123")
		assert.ErrorIs(t, err, card.ErrValidation)
	})

	t.Run("logout revokes token", func(t *testing.T) {
		b, u := srv.signUp(t, "Elena", "elena@example.com")
		current, err := b.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, u.ID, current.ID)

		before := len(srv.sessions.tokens)
		require.NoError(t, b.Logout(ctx))
		assert.Equal(t, before-1, len(srv.sessions.tokens))
	})

	t.Run("change password then log in again", func(t *testing.T) {
		b, _ := srv.signUp(t, "Fabio", "fabio@example.com")
		require.NoError(t, b.UpdatePassword(ctx, "brand-new"))

		_, err := srv.client(t).Login(ctx, "fabio@example.com", "brand-new")
		assert.NoError(t, err)
	})

	t.Run("reset is accepted for any email", func(t *testing.T) {
		b := srv.client(t)
		require.NoError(t, b.ResetPassword(ctx, "ghost@example.com"))
		require.NoError(t, b.ResetPassword(ctx, "fabio@example.com"))
		assert.Equal(t, 1, srv.sessions.resets)
	})
}

func TestAPI_RequiresBearer(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/cards")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/problem+json")
}

func TestAPI_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"schema_version":2`)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `cardkeeper_http_requests_total{method="GET",route="/api/v1/health",status="200"} 1`)
}
