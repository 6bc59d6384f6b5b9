package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeServer - минимальная реализация API сервера с отстающей схемой
type fakeServer struct {
	mu       sync.Mutex
	rows     map[string]map[string]any
	missing  map[string]bool
	requests []recordedRequest
	failWith int
	nextID   int
	// schemaVersion 0 - сервер без /health
	schemaVersion uint
	healthCalls   int
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{rows: map[string]map[string]any{}, missing: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/cards", fs.list)
	mux.HandleFunc("POST /api/v1/cards", fs.insert)
	mux.HandleFunc("GET /api/v1/cards/{id}", fs.get)
	mux.HandleFunc("PATCH /api/v1/cards/{id}", fs.patch)
	mux.HandleFunc("DELETE /api/v1/cards/{id}", fs.delete)
	mux.HandleFunc("POST /api/v1/auth/login", fs.login)
	mux.HandleFunc("GET /api/v1/auth/me", fs.me)
	mux.HandleFunc("GET /api/v1/health", fs.health)
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		fs.record(r, nil)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) record(r *http.Request, body map[string]any) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.requests = append(fs.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
	})
}

func (fs *fakeServer) writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

func (fs *fakeServer) decode(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	fs.record(r, body)
	return body
}

// checkColumns имитирует ошибку Postgres 42703
func (fs *fakeServer) checkColumns(w http.ResponseWriter, body map[string]any) bool {
	for col := range body {
		if fs.missing[col] {
			fs.writeProblem(w, http.StatusUnprocessableEntity,
				`column "`+col+`" of relation "business_cards" does not exist`)
			return false
		}
	}
	return true
}

func (fs *fakeServer) health(w http.ResponseWriter, _ *http.Request) {
	fs.mu.Lock()
	fs.healthCalls++
	version := fs.schemaVersion
	fs.mu.Unlock()

	if version == 0 {
		http.NotFound(w, nil)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK", "schema_version": version})
}

func (fs *fakeServer) list(w http.ResponseWriter, r *http.Request) {
	fs.record(r, nil)
	owner := r.URL.Query().Get("owner_id")
	mine := r.URL.Query().Get("scope") != string(backend.ScopeCommunity)

	fs.mu.Lock()
	out := []map[string]any{}
	for _, row := range fs.rows {
		if (row["user_id"] == owner) == mine {
			out = append(out, row)
		}
	}
	fs.mu.Unlock()

	_ = json.NewEncoder(w).Encode(map[string]any{"cards": out})
}

func (fs *fakeServer) insert(w http.ResponseWriter, r *http.Request) {
	body := fs.decode(r)
	if fs.failWith != 0 {
		fs.writeProblem(w, fs.failWith, "boom")
		return
	}
	if !fs.checkColumns(w, body) {
		return
	}

	fs.mu.Lock()
	fs.nextID++
	id := fmt.Sprintf("00000000-0000-4000-8000-%012d", fs.nextID)
	body["id"] = id
	fs.rows[id] = body
	fs.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(body)
}

func (fs *fakeServer) get(w http.ResponseWriter, r *http.Request) {
	fs.record(r, nil)
	fs.mu.Lock()
	row, ok := fs.rows[r.PathValue("id")]
	fs.mu.Unlock()
	if !ok {
		fs.writeProblem(w, http.StatusNotFound, "card not found")
		return
	}
	_ = json.NewEncoder(w).Encode(row)
}

func (fs *fakeServer) patch(w http.ResponseWriter, r *http.Request) {
	body := fs.decode(r)
	if !fs.checkColumns(w, body) {
		return
	}

	fs.mu.Lock()
	row, ok := fs.rows[r.PathValue("id")]
	if ok {
		for k, v := range body {
			row[k] = v
		}
	}
	fs.mu.Unlock()

	if !ok {
		fs.writeProblem(w, http.StatusNotFound, "card not found")
		return
	}
	_ = json.NewEncoder(w).Encode(row)
}

func (fs *fakeServer) delete(w http.ResponseWriter, r *http.Request) {
	fs.record(r, nil)
	fs.mu.Lock()
	_, ok := fs.rows[r.PathValue("id")]
	delete(fs.rows, r.PathValue("id"))
	fs.mu.Unlock()
	if !ok {
		fs.writeProblem(w, http.StatusNotFound, "card not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (fs *fakeServer) login(w http.ResponseWriter, r *http.Request) {
	body := fs.decode(r)
	if body["password"] != "secret1" {
		fs.writeProblem(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token": "tok-123",
		"user":  map[string]any{"id": "u-1", "name": "Mario", "email": body["email"]},
	})
}

func (fs *fakeServer) me(w http.ResponseWriter, r *http.Request) {
	fs.record(r, nil)
	if r.Header.Get("Authorization") != "Bearer tok-123" {
		fs.writeProblem(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": "u-1", "name": "Mario", "email": "m@example.com"})
}

func (fs *fakeServer) requestsFor(method string) []recordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []recordedRequest
	for _, r := range fs.requests {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func newTestBackend(t *testing.T, srv *httptest.Server, opts ...Option) *Backend {
	t.Helper()
	tokenPath := filepath.Join(t.TempDir(), "token")
	b, err := New(srv.URL, tokenPath, slog.Default(), opts...)
	require.NoError(t, err)
	return b
}

func ptr[T any](v T) *T { return &v }

func TestSaveCard_SchemaDriftRetriesWithoutColumn(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.missing[card.ColBipConvention] = true
	b := newTestBackend(t, srv)

	c := &card.Card{
		UserID:        "u-1",
		Name:          "Hotel Sole",
		Type:          card.TypeHotel,
		BipConvention: ptr(true),
		Lat:           ptr(45.0),
		Lng:           ptr(9.0),
		ImageFront:    "aGVsbG8=",
	}
	require.NoError(t, b.SaveCard(context.Background(), c))

	posts := fs.requestsFor(http.MethodPost)
	require.Len(t, posts, 2, "exactly one retry")
	assert.Contains(t, posts[0].Body, card.ColBipConvention)
	assert.NotContains(t, posts[1].Body, card.ColBipConvention)
	// "relation" в тексте ошибки не должен срезать lat
	assert.Contains(t, posts[1].Body, card.ColLat)
	assert.Equal(t, "", posts[1].Body[card.ColImageFront])

	assert.Nil(t, c.BipConvention)
	assert.Equal(t, card.StatusRemote, c.Status)
	assert.NotEmpty(t, c.ID)
	assert.True(t, card.HasValidLocation(*c))

	stored, err := b.GetCard(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.BipConvention)
}

func TestSaveCard_LocationPairDroppedTogether(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.missing[card.ColLng] = true
	b := newTestBackend(t, srv)

	c := &card.Card{UserID: "u-1", Name: "Bar", Lat: ptr(45.0), Lng: ptr(9.0)}
	require.NoError(t, b.SaveCard(context.Background(), c))

	posts := fs.requestsFor(http.MethodPost)
	require.Len(t, posts, 2)
	assert.NotContains(t, posts[1].Body, card.ColLat)
	assert.NotContains(t, posts[1].Body, card.ColLng)
	assert.Nil(t, c.Lat)
	assert.Nil(t, c.Lng)
}

func TestSaveCard_OldSchemaVersionSkipsOptionalColumns(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.schemaVersion = 1
	for _, col := range []string{card.ColLat, card.ColLng, card.ColAverageCost, card.ColServices, card.ColBipConvention, card.ColLikedBy} {
		fs.missing[col] = true
	}
	b := newTestBackend(t, srv)
	ctx := context.Background()

	c := &card.Card{UserID: "u-1", Name: "Hotel Sole", BipConvention: ptr(true), Lat: ptr(45.0), Lng: ptr(9.0)}
	require.NoError(t, b.SaveCard(ctx, c))
	require.NoError(t, b.SaveCard(ctx, &card.Card{UserID: "u-1", Name: "Bar", AverageCost: ptr(12.0)}))

	posts := fs.requestsFor(http.MethodPost)
	require.Len(t, posts, 2, "no failing round trip")
	assert.NotContains(t, posts[0].Body, card.ColBipConvention)
	assert.NotContains(t, posts[0].Body, card.ColLat)
	assert.NotContains(t, posts[0].Body, card.ColLikedBy)
	assert.Contains(t, posts[0].Body, card.ColName)
	fs.mu.Lock()
	assert.Equal(t, 1, fs.healthCalls)
	fs.mu.Unlock()

	assert.Nil(t, c.BipConvention)
	assert.Nil(t, c.Lat)
	assert.Equal(t, card.StatusRemote, c.Status)

	// лайк на такой схеме хранить негде
	err := b.ToggleLike(ctx, c.ID, "u-2")
	assert.ErrorIs(t, err, card.ErrSchemaDrift)
	assert.Empty(t, fs.requestsFor(http.MethodPatch))
}

func TestSaveCard_CurrentSchemaVersionSendsEverything(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.schemaVersion = 2
	b := newTestBackend(t, srv)

	c := &card.Card{UserID: "u-1", Name: "Hotel Sole", BipConvention: ptr(true)}
	require.NoError(t, b.SaveCard(context.Background(), c))

	posts := fs.requestsFor(http.MethodPost)
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0].Body, card.ColBipConvention)
	assert.NotNil(t, c.BipConvention)
}

func TestSaveCard_NonSchemaErrorIsNotRetried(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.failWith = http.StatusInternalServerError
	b := newTestBackend(t, srv)

	err := b.SaveCard(context.Background(), &card.Card{UserID: "u-1", Name: "Bar"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, card.ErrSchemaDrift)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Len(t, fs.requestsFor(http.MethodPost), 1)
}

func TestSaveCard_UnknownRequiredColumnSurfaces(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.missing[card.ColName] = true
	b := newTestBackend(t, srv)

	err := b.SaveCard(context.Background(), &card.Card{UserID: "u-1", Name: "Bar"})

	require.Error(t, err)
	assert.ErrorIs(t, err, card.ErrSchemaDrift)
	assert.Contains(t, err.Error(), `column "name"`)
	assert.Len(t, fs.requestsFor(http.MethodPost), 1)
}

func TestSaveCard_ValidationMakesNoCalls(t *testing.T) {
	fs, srv := newFakeServer(t)
	b := newTestBackend(t, srv)

	err := b.SaveCard(context.Background(), &card.Card{UserID: "u-1"})

	assert.ErrorIs(t, err, card.ErrValidation)
	assert.Empty(t, fs.requests)
}

func TestSaveCard_UpdateUsesPatch(t *testing.T) {
	fs, srv := newFakeServer(t)
	b := newTestBackend(t, srv)
	ctx := context.Background()

	c := &card.Card{UserID: "u-1", Name: "Bar"}
	require.NoError(t, b.SaveCard(ctx, c))
	id := c.ID

	c.Name = "Bar Centrale"
	require.NoError(t, b.SaveCard(ctx, c))

	assert.Equal(t, id, c.ID)
	patches := fs.requestsFor(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "/api/v1/cards/"+id, patches[0].Path)
	assert.NotContains(t, patches[0].Body, card.ColUserID)
	assert.Len(t, fs.requestsFor(http.MethodPost), 1)
}

func TestGetCards_ScopeAndNormalization(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.rows["a"] = map[string]any{"id": "a", "user_id": "u-1", "name": "Mine", "type": "Altro", "created_at": 1}
	fs.rows["b"] = map[string]any{"id": "b", "user_id": "u-2", "name": "Other", "type": "Hotel", "created_at": 2}
	fs.rows["c"] = map[string]any{"id": "c", "user_id": "u-1", "name": "Newer", "type": "Hotel", "created_at": 3}
	b := newTestBackend(t, srv, WithCommunityLimit(10))
	ctx := context.Background()

	mine, err := b.GetCards(ctx, "u-1", backend.ScopeMine)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "c", mine[0].ID)
	assert.Equal(t, card.TypeExperience, mine[1].Type)
	assert.Equal(t, []string{}, mine[1].LikedBy)
	assert.Equal(t, card.StatusRemote, mine[1].Status)

	community, err := b.GetCards(ctx, "u-1", backend.ScopeCommunity)
	require.NoError(t, err)
	require.Len(t, community, 1)
	assert.Equal(t, "b", community[0].ID)

	gets := fs.requestsFor(http.MethodGet)
	require.Len(t, gets, 2)
	assert.NotContains(t, gets[0].Query, "limit")
	assert.Contains(t, gets[1].Query, "limit=10")
}

func TestGetCard_NotFound(t *testing.T) {
	_, srv := newFakeServer(t)
	b := newTestBackend(t, srv)

	_, err := b.GetCard(context.Background(), "missing")

	assert.ErrorIs(t, err, card.ErrNotFound)
}

func TestDeleteCard_Idempotent(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.rows["a"] = map[string]any{"id": "a", "user_id": "u-1", "name": "Bar"}
	b := newTestBackend(t, srv)
	ctx := context.Background()

	require.NoError(t, b.DeleteCard(ctx, "a"))
	require.NoError(t, b.DeleteCard(ctx, "a"))
	assert.Len(t, fs.requestsFor(http.MethodDelete), 2)
}

func TestToggleLike_ReadModifyWrite(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.rows["a"] = map[string]any{"id": "a", "user_id": "u-1", "name": "Bar", "liked_by": []any{"u-2"}}
	b := newTestBackend(t, srv)
	ctx := context.Background()

	require.NoError(t, b.ToggleLike(ctx, "a", "u-3"))
	got, err := b.GetCard(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u-2", "u-3"}, got.LikedBy)

	require.NoError(t, b.ToggleLike(ctx, "a", "u-3"))
	got, err = b.GetCard(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-2"}, got.LikedBy)

	patches := fs.requestsFor(http.MethodPatch)
	require.Len(t, patches, 2)
	assert.Len(t, patches[0].Body, 1, "only liked_by is written")
}

func TestDuplicateCard(t *testing.T) {
	_, srv := newFakeServer(t)
	b := newTestBackend(t, srv)

	src := card.Card{ID: "card_1", UserID: "A", Name: "Osteria", LikedBy: []string{"A", "B"}, CreatedAt: 1000, Status: card.StatusRemote}
	dup, err := b.DuplicateCard(context.Background(), src, "C")
	require.NoError(t, err)

	assert.Equal(t, "C", dup.UserID)
	assert.Empty(t, dup.LikedBy)
	assert.Greater(t, dup.CreatedAt, int64(1000))
	assert.NotEqual(t, "card_1", dup.ID)
	assert.Equal(t, card.StatusRemote, dup.Status)
}

func TestAuth_TokenLifecycle(t *testing.T) {
	_, srv := newFakeServer(t)
	tokenPath := filepath.Join(t.TempDir(), "token")
	b, err := New(srv.URL, tokenPath, slog.Default())
	require.NoError(t, err)
	ctx := context.Background()

	u, err := b.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = b.Login(ctx, "m@example.com", "")
	assert.ErrorIs(t, err, backend.ErrPasswordRequired)

	_, err = b.Login(ctx, "m@example.com", "wrong")
	assert.ErrorIs(t, err, backend.ErrBadCredentials)
	assert.NotErrorIs(t, err, backend.ErrNoSession)

	u, err = b.Login(ctx, " m@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	saved, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", string(saved))

	// новый процесс подхватывает токен из файла
	restored, err := New(srv.URL, tokenPath, slog.Default())
	require.NoError(t, err)
	current, err := restored.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "u-1", current.ID)

	require.NoError(t, restored.Logout(ctx))
	_, err = os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(err))
}

func TestGetCurrentUser_ExpiredTokenCleared(t *testing.T) {
	_, srv := newFakeServer(t)
	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("stale"), 0600))

	b, err := New(srv.URL, tokenPath, slog.Default())
	require.NoError(t, err)

	u, err := b.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
	_, err = os.Stat(tokenPath)
	assert.True(t, os.IsNotExist(err))
}

func TestMissingColumns(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want []string
	}{
		{name: "single", msg: `column "average_cost" of relation "business_cards" does not exist`, want: []string{card.ColAverageCost}},
		{name: "pair", msg: `column "lat" does not exist`, want: []string{card.ColLat, card.ColLng}},
		{name: "relation is not lat", msg: `column "foo" of relation "business_cards" does not exist`, want: nil},
		{name: "multiple", msg: `Could not find the 'services' column and 'liked_by' column`, want: []string{card.ColServices, card.ColLikedBy}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, missingColumns(tt.msg))
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Status: http.StatusUnprocessableEntity, Message: "column x"}

	assert.True(t, strings.Contains(err.Error(), "422"))
	_, ok := isSchemaError(err)
	assert.True(t, ok)

	_, ok = isSchemaError(&APIError{Status: 500, Message: "columnist"})
	assert.False(t, ok)
}
