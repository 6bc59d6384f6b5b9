package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/domain/card"
)

func TestCardRepository_mapError(t *testing.T) {
	r := NewCardRepository(nil, slog.Default())

	t.Run("undefined column keeps postgres message", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:    "42703",
			Message: `column "bip_convention" of relation "business_cards" does not exist`,
		}

		err := r.mapError("insert card", fmt.Errorf("query: %w", pgErr))

		var colErr *card.ColumnError
		assert.ErrorAs(t, err, &colErr)
		assert.ErrorIs(t, err, card.ErrSchemaDrift)
		assert.Equal(t, pgErr.Message, colErr.Message)
	})

	t.Run("no rows", func(t *testing.T) {
		assert.ErrorIs(t, r.mapError("get card", pgx.ErrNoRows), card.ErrNotFound)
	})

	t.Run("other errors wrapped", func(t *testing.T) {
		base := errors.New("connection reset")
		err := r.mapError("list cards", base)
		assert.ErrorIs(t, err, base)
		assert.Contains(t, err.Error(), "list cards")
	})
}

func TestColumnsOf(t *testing.T) {
	cols, args := columnsOf(card.Payload{"name": "Bar", "lat": 1.5, "address": nil})

	assert.Equal(t, []string{"address", "lat", "name"}, cols)
	assert.Equal(t, []any{nil, 1.5, "Bar"}, args)
	assert.Equal(t, `"address", "lat", "name"`, quoted(cols))
}

func TestToPayload(t *testing.T) {
	p := toPayload(map[string]any{
		"id":       "c1",
		"tags":     []any{"vino", "pesce"},
		"liked_by": nil,
	})

	assert.Equal(t, []string{"vino", "pesce"}, p[card.ColTags])
	assert.Equal(t, []string{}, p[card.ColLikedBy])
	assert.NotContains(t, p, card.ColServices)
}
