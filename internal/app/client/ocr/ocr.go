// Package ocr распознает визитки по фото. Результат используется только
// для предзаполнения формы и не считается проверенными данными.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cardkeeper/internal/domain/card"
)

var ErrNotConfigured = errors.New("ai extraction is not configured")

// Extractor извлекает поля визитки из изображения
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error)
}

// Extraction - лучшая догадка модели, любое поле может отсутствовать
type Extraction struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	Website       string   `json:"website"`
	Email         string   `json:"email"`
	SuggestedTags []string `json:"suggestedTags"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
}

// Prefill строит черновик карточки. Неизвестный тип заменяется на Ristorante,
// одиночная координата отбрасывается.
func (e Extraction) Prefill() card.Card {
	t, ok := card.ParseType(e.Type)
	if !ok {
		t = card.TypeRestaurant
	}

	tags := make([]string, 0, len(e.SuggestedTags))
	seen := make(map[string]struct{}, len(e.SuggestedTags))
	for _, tag := range e.SuggestedTags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, tag)
	}

	c := card.Card{
		Name:     strings.TrimSpace(e.Name),
		Type:     t,
		Address:  strings.TrimSpace(e.Address),
		Phone:    strings.TrimSpace(e.Phone),
		Website:  strings.TrimSpace(e.Website),
		Email:    strings.TrimSpace(e.Email),
		Tags:     tags,
		Services: []string{},
		LikedBy:  []string{},
		Status:   card.StatusNew,
	}
	if e.Lat != nil && e.Lng != nil {
		c.SetLocation(*e.Lat, *e.Lng)
	}
	return c
}

// parseExtraction разбирает JSON ответа модели, допускает обертку ```json
func parseExtraction(text string) (*Extraction, error) {
	text = stripFence(text)
	if text == "" {
		return nil, errors.New("empty model response")
	}

	var out Extraction
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	return &out, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
