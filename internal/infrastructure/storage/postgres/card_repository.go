package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/domain/card"
)

const cardsTable = "business_cards"

// CardRepository пишет только присланные колонки и читает строки как map,
// поэтому колонка, которой нет в схеме, дает ошибку 42703 вместо потери данных
type CardRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewCardRepository(pool *pgxpool.Pool, log *slog.Logger) *CardRepository {
	return &CardRepository{
		pool: pool,
		log:  log.With("component", "card_repository"),
	}
}

func (r *CardRepository) ListByOwner(ctx context.Context, ownerID string) ([]card.Payload, error) {
	query := `SELECT * FROM ` + cardsTable + ` WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *CardRepository) ListCommunity(ctx context.Context, excludeOwnerID string, limit int) ([]card.Payload, error) {
	query := `SELECT * FROM ` + cardsTable + ` WHERE user_id <> $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, excludeOwnerID, limit)
}

func (r *CardRepository) list(ctx context.Context, query string, args ...any) ([]card.Payload, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to list cards", "error", err)
		return nil, r.mapError("list cards", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, r.mapError("scan cards", err)
	}

	out := make([]card.Payload, 0, len(maps))
	for _, m := range maps {
		out = append(out, toPayload(m))
	}
	return out, nil
}

func (r *CardRepository) Get(ctx context.Context, id string) (card.Payload, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM `+cardsTable+` WHERE id = $1`, id)
	if err != nil {
		return nil, r.mapError("get card", err)
	}
	return r.one("get card", rows)
}

func (r *CardRepository) Insert(ctx context.Context, p card.Payload) (card.Payload, error) {
	cols, args := columnsOf(p)

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		cardsTable, quoted(cols), strings.Join(placeholders, ", "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapError("insert card", err)
	}
	return r.one("insert card", rows)
}

func (r *CardRepository) Update(ctx context.Context, id string, p card.Payload) (card.Payload, error) {
	cols, args := columnsOf(p)

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING *`,
		cardsTable, strings.Join(sets, ", "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapError("update card", err)
	}
	return r.one("update card", rows)
}

func (r *CardRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+cardsTable+` WHERE id = $1`, id); err != nil {
		return r.mapError("delete card", err)
	}
	return nil
}

func (r *CardRepository) one(op string, rows pgx.Rows) (card.Payload, error) {
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, r.mapError(op, err)
	}
	return toPayload(m), nil
}

// mapError переводит ошибки pgx в доменные. Текст 42703 сохраняется как есть.
func (r *CardRepository) mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return card.ErrNotFound
	}
	if pgErr, ok := pgCode(err); ok && pgErr.Code == codeUndefinedColumn {
		r.log.Warn("schema is missing a column", "op", op, "message", pgErr.Message)
		return &card.ColumnError{Message: pgErr.Message}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// columnsOf возвращает колонки в стабильном порядке и значения к ним
func columnsOf(p card.Payload) ([]string, []any) {
	cols := make([]string, 0, len(p))
	for col := range p {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = p[col]
	}
	return cols, args
}

func quoted(cols []string) string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = pgx.Identifier{col}.Sanitize()
	}
	return strings.Join(out, ", ")
}

// toPayload приводит массивы из pgx ([]any) к []string
func toPayload(m map[string]any) card.Payload {
	p := card.Payload(m)
	for _, col := range []string{card.ColTags, card.ColServices, card.ColLikedBy} {
		v, ok := p[col]
		if !ok {
			continue
		}
		vals, _ := v.([]any)
		strs := make([]string, 0, len(vals))
		for _, x := range vals {
			if s, ok := x.(string); ok {
				strs = append(strs, s)
			}
		}
		p[col] = strs
	}
	return p
}
