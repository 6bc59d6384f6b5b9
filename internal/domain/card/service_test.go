package card

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// memRepo - хранилище в памяти с той же семантикой, что и postgres
type memRepo struct {
	rows    map[string]Payload
	updates int
	deletes int
}

func newMemRepo(rows ...Payload) *memRepo {
	r := &memRepo{rows: map[string]Payload{}}
	for _, row := range rows {
		r.rows[row[ColID].(string)] = row.Clone()
	}
	return r
}

func (r *memRepo) sorted(keep func(Payload) bool) []Payload {
	var out []Payload
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][ColCreatedAt].(int64) > out[j][ColCreatedAt].(int64)
	})
	return out
}

func (r *memRepo) ListByOwner(_ context.Context, ownerID string) ([]Payload, error) {
	return r.sorted(func(p Payload) bool { return p[ColUserID] == ownerID }), nil
}

func (r *memRepo) ListCommunity(_ context.Context, excludeOwnerID string, limit int) ([]Payload, error) {
	out := r.sorted(func(p Payload) bool { return p[ColUserID] != excludeOwnerID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, id string) (Payload, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return row.Clone(), nil
}

func (r *memRepo) Insert(_ context.Context, p Payload) (Payload, error) {
	r.rows[p[ColID].(string)] = p.Clone()
	return p.Clone(), nil
}

func (r *memRepo) Update(_ context.Context, id string, p Payload) (Payload, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.updates++
	for k, v := range p {
		row[k] = v
	}
	return row.Clone(), nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.deletes++
	delete(r.rows, id)
	return nil
}

func newTestService(repo Repository) *Service {
	s := NewService(repo, slog.Default())
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return s
}

func row(id, owner string, created int64) Payload {
	return Payload{
		ColID:        id,
		ColUserID:    owner,
		ColName:      "Card " + id,
		ColType:      string(TypeRestaurant),
		ColCreatedAt: created,
		ColLikedBy:   []string{},
	}
}

func TestService_Insert(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	got, err := svc.Insert(context.Background(), "anna", Payload{
		ColName:          "Osteria",
		ColType:          "Ristorante",
		ColTags:          []any{"pesce", " vino "},
		ColRating:        float64(4),
		ColBipConvention: nil,
		ColLat:           45.1,
		ColLng:           9.2,
	})
	require.NoError(t, err)

	want := Payload{
		ColID:            got[ColID],
		ColUserID:        "anna",
		ColName:          "Osteria",
		ColType:          string(TypeRestaurant),
		ColTags:          []string{"pesce", "vino"},
		ColRating:        int64(4),
		ColBipConvention: nil,
		ColLat:           45.1,
		ColLng:           9.2,
		ColCreatedAt:     int64(1_700_000_000_000),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inserted row mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, got[ColID], 36)
}

func TestService_Insert_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr error
	}{
		{name: "missing name", payload: Payload{ColType: "Hotel"}, wantErr: ErrValidation},
		{name: "client id", payload: Payload{ColID: "card_1", ColName: "x"}, wantErr: ErrValidation},
		{name: "unknown column", payload: Payload{ColName: "x", "secret": 1}, wantErr: ErrValidation},
		{name: "rating out of range", payload: Payload{ColName: "x", ColRating: float64(9)}, wantErr: ErrValidation},
		{name: "fractional rating", payload: Payload{ColName: "x", ColRating: 2.5}, wantErr: ErrValidation},
		{name: "latitude out of range", payload: Payload{ColName: "x", ColLat: 123.0, ColLng: 1.0}, wantErr: ErrValidation},
		{name: "wrong type", payload: Payload{ColName: 42}, wantErr: ErrValidation},
		{name: "unknown card type", payload: Payload{ColName: "x", ColType: "Bar"}, wantErr: ErrValidation},
		{name: "foreign owner", payload: Payload{ColName: "x", ColUserID: "bob"}, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo()
			_, err := newTestService(repo).Insert(context.Background(), "anna", tt.payload)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("owner patches present columns only", func(t *testing.T) {
		repo := newMemRepo(row("c1", "anna", 1))
		got, err := newTestService(repo).Update(ctx, "anna", "c1", Payload{ColNotes: "ottimo", ColUserID: "anna"})
		require.NoError(t, err)

		assert.Equal(t, "ottimo", got[ColNotes])
		assert.Equal(t, "Card c1", got[ColName])
		assert.Equal(t, "anna", got[ColUserID])
	})

	t.Run("owner cannot give card away", func(t *testing.T) {
		repo := newMemRepo(row("c1", "anna", 1))
		_, err := newTestService(repo).Update(ctx, "anna", "c1", Payload{ColUserID: "bob"})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Zero(t, repo.updates)
	})

	t.Run("non-owner toggles own like", func(t *testing.T) {
		repo := newMemRepo(row("c1", "anna", 1))
		got, err := newTestService(repo).Update(ctx, "bob", "c1", Payload{ColLikedBy: []any{"bob"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, got[ColLikedBy])
	})

	t.Run("non-owner cannot touch other likes", func(t *testing.T) {
		liked := row("c1", "anna", 1)
		liked[ColLikedBy] = []string{"carla"}
		repo := newMemRepo(liked)

		_, err := newTestService(repo).Update(ctx, "bob", "c1", Payload{ColLikedBy: []any{}})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-owner cannot edit fields", func(t *testing.T) {
		repo := newMemRepo(row("c1", "anna", 1))
		_, err := newTestService(repo).Update(ctx, "bob", "c1", Payload{ColName: "mine now"})
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Zero(t, repo.updates)
	})

	t.Run("missing card", func(t *testing.T) {
		_, err := newTestService(newMemRepo()).Update(ctx, "anna", "ghost", Payload{ColNotes: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		repo := newMemRepo(row("c1", "anna", 1))
		_, err := newTestService(repo).Update(ctx, "anna", "c1", Payload{ColName: ""})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(row("c1", "anna", 1))
	svc := newTestService(repo)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", "c1"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, "anna", "c1"))
	require.NoError(t, svc.Delete(ctx, "anna", "c1"))

	assert.Equal(t, 1, repo.deletes)
	assert.Empty(t, repo.rows)
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo(
		row("a1", "anna", 10),
		row("a2", "anna", 30),
		row("b1", "bob", 20),
		row("c1", "carla", 40),
	)
	svc := newTestService(repo)

	mine, err := svc.List(ctx, "anna", "", false, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"a2", "a1"}, rowIDs(mine))

	community, err := svc.List(ctx, "anna", "anna", true, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{"c1"}, rowIDs(community))

	_, err = svc.List(ctx, "anna", "bob", false, 0)
	assert.ErrorIs(t, err, ErrForbidden)
}

func rowIDs(rows []Payload) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[ColID])
	}
	return out
}
