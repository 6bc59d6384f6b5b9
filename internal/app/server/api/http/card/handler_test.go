package card

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/server/api/http/middleware/auth"
	"cardkeeper/internal/domain/card"
)

type stubService struct {
	err      error
	rows     []card.Payload
	callerID string
	ownerID  string
	comm     bool
}

func (s *stubService) List(_ context.Context, callerID, ownerID string, community bool, _ int) ([]card.Payload, error) {
	s.callerID, s.ownerID, s.comm = callerID, ownerID, community
	return s.rows, s.err
}

func (s *stubService) Get(context.Context, string) (card.Payload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return card.Payload{card.ColID: "c1"}, nil
}

func (s *stubService) Insert(_ context.Context, callerID string, p card.Payload) (card.Payload, error) {
	s.callerID = callerID
	return p, s.err
}

func (s *stubService) Update(_ context.Context, callerID, _ string, p card.Payload) (card.Payload, error) {
	s.callerID = callerID
	return p, s.err
}

func (s *stubService) Delete(_ context.Context, callerID, _ string) error {
	s.callerID = callerID
	return s.err
}

func status(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected huma status error, got %v", err)
	return se.GetStatus()
}

func TestHandler_httpError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation",
			err:        &card.ValidationError{Field: "rating", Message: "must be between 0 and 5"},
			wantStatus: http.StatusBadRequest,
			wantDetail: "rating: must be between 0 and 5",
		},
		{
			name:       "missing column keeps database text",
			err:        &card.ColumnError{Message: `column "liked_by" of relation "business_cards" does not exist`},
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: `column "liked_by" of relation "business_cards" does not exist`,
		},
		{name: "not found", err: card.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "forbidden", err: card.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "unexpected", err: errors.New("pool closed"), wantStatus: http.StatusInternalServerError, wantDetail: "internal error"},
	}

	h := NewHandler(&stubService{}, slog.Default(), huma.Middlewares{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.httpError(tt.err)

			assert.Equal(t, tt.wantStatus, status(t, err))
			if tt.wantDetail != "" {
				var model *huma.ErrorModel
				require.ErrorAs(t, err, &model)
				assert.Equal(t, tt.wantDetail, model.Detail)
			}
		})
	}
}

func TestHandler_RequiresUser(t *testing.T) {
	h := NewHandler(&stubService{}, slog.Default(), huma.Middlewares{})
	ctx := context.Background()

	_, err := h.list(ctx, &listInput{})
	assert.Equal(t, http.StatusUnauthorized, status(t, err))

	_, err = h.create(ctx, &createInput{Body: card.Payload{card.ColName: "x"}})
	assert.Equal(t, http.StatusUnauthorized, status(t, err))

	_, err = h.delete(ctx, &findInput{ID: "c1"})
	assert.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestHandler_list(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})
	ctx := auth.WithUserID(context.Background(), "anna")

	out, err := h.list(ctx, &listInput{OwnerID: "anna", Scope: "community", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, "anna", svc.callerID)
	assert.True(t, svc.comm)
	// пустой список сериализуется как [], а не null
	assert.NotNil(t, out.Body.Cards)
	assert.Empty(t, out.Body.Cards)
}

func TestHandler_create(t *testing.T) {
	svc := &stubService{}
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})
	ctx := auth.WithUserID(context.Background(), "anna")

	out, err := h.create(ctx, &createInput{Body: card.Payload{card.ColName: "Osteria"}})
	require.NoError(t, err)

	assert.Equal(t, "anna", svc.callerID)
	assert.Equal(t, "Osteria", out.Body[card.ColName])

	svc.err = card.ErrForbidden
	_, err = h.update(ctx, &updateInput{ID: "c1", Body: card.Payload{card.ColName: "x"}})
	assert.Equal(t, http.StatusForbidden, status(t, err))
}
