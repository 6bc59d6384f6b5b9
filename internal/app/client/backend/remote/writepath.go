package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"cardkeeper/internal/domain/card"
)

// optionalGroups - колонки, добавленные миграциями позже базовой схемы.
// Порядок фиксирован; lat и lng удаляются только парой.
var optionalGroups = [][]string{
	{card.ColLat, card.ColLng},
	{card.ColAverageCost},
	{card.ColServices},
	{card.ColBipConvention},
	{card.ColLikedBy},
}

// schemaWithOptionalColumns - версия миграции, добавившей опциональные колонки
const schemaWithOptionalColumns = 2

type healthResponse struct {
	Status        string `json:"status"`
	SchemaVersion uint   `json:"schema_version"`
}

var (
	columnMarker = regexp.MustCompile(`(?i)\bcolumn\b`)
	columnRes    = compileColumnRes()
)

func compileColumnRes() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, group := range optionalGroups {
		for _, col := range group {
			out[col] = regexp.MustCompile(`\b` + regexp.QuoteMeta(col) + `\b`)
		}
	}
	return out
}

// isSchemaError распознает ошибку неизвестной колонки по тексту сообщения.
// Зависит от формулировки Postgres.
func isSchemaError(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	return apiErr.Message, columnMarker.MatchString(apiErr.Message)
}

// missingColumns возвращает колонки опциональных групп, упомянутых в сообщении
func missingColumns(msg string) []string {
	var out []string
	for _, group := range optionalGroups {
		mentioned := false
		for _, col := range group {
			if columnRes[col].MatchString(msg) {
				mentioned = true
				break
			}
		}
		if mentioned {
			out = append(out, group...)
		}
	}
	return out
}

type sendFunc func(ctx context.Context, payload card.Payload) (*card.Row, error)

// schemaVersion один раз спрашивает версию схемы у /health.
// 0 - версия неизвестна, тогда остается только разбор ошибок записи.
func (b *Backend) schemaVersion(ctx context.Context) uint {
	b.schemaOnce.Do(func() {
		var resp healthResponse
		if err := b.api.call(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
			b.log.Debug("schema version unavailable", "error", err)
			return
		}
		b.schema = resp.SchemaVersion
		b.log.Debug("remote schema version", "version", b.schema)
	})
	return b.schema
}

func allOptionalColumns() []string {
	var out []string
	for _, group := range optionalGroups {
		out = append(out, group...)
	}
	return out
}

// withoutColumns возвращает копию payload без cols и список реально удаленных колонок
func withoutColumns(payload card.Payload, cols []string) (card.Payload, []string) {
	out := payload.Clone()
	var dropped []string
	for _, col := range cols {
		if out.Has(col) {
			delete(out, col)
			dropped = append(dropped, col)
		}
	}
	return out, dropped
}

// write выполняет запись и при расхождении схемы повторяет ее ровно один раз
// без упомянутых опциональных колонок. Возвращает удаленные колонки.
// Если сервер сообщил старую версию схемы, опциональные колонки не отправляются сразу.
func (b *Backend) write(ctx context.Context, payload card.Payload, send sendFunc) (*card.Row, []string, error) {
	var dropped []string
	if v := b.schemaVersion(ctx); v > 0 && v < schemaWithOptionalColumns {
		payload, dropped = withoutColumns(payload, allOptionalColumns())
		if len(payload) == 0 {
			return nil, nil, fmt.Errorf("%w: schema version %d has none of columns %v", card.ErrSchemaDrift, v, dropped)
		}
		if len(dropped) > 0 {
			b.log.Debug("remote schema predates optional columns", "version", v, "columns", dropped)
		}
	}

	row, err := send(ctx, payload)
	if err == nil {
		return row, dropped, nil
	}

	msg, ok := isSchemaError(err)
	if !ok {
		return nil, nil, err
	}

	stripped, more := withoutColumns(payload, missingColumns(msg))
	if len(more) == 0 || len(stripped) == 0 {
		b.log.Error("remote schema rejected write", "error", msg)
		return nil, nil, fmt.Errorf("%w: %w", card.ErrSchemaDrift, err)
	}

	b.log.Warn("remote schema is behind, retrying without optional columns",
		"columns", more,
		"error", msg,
	)

	row, err = send(ctx, stripped)
	if err != nil {
		b.log.Error("write failed after dropping optional columns", "columns", more, "error", err)
		return nil, nil, fmt.Errorf("%w: retry without %v: %w", card.ErrSchemaDrift, more, err)
	}

	return row, append(dropped, more...), nil
}

// clearColumns убирает с карточки значения колонок, которых нет в удаленной схеме
func clearColumns(c *card.Card, cols []string) {
	for _, col := range cols {
		switch col {
		case card.ColLat, card.ColLng:
			c.ClearLocation()
		case card.ColAverageCost:
			c.AverageCost = nil
		case card.ColServices:
			c.Services = []string{}
		case card.ColBipConvention:
			c.BipConvention = nil
		case card.ColLikedBy:
			c.LikedBy = []string{}
		}
	}
}
