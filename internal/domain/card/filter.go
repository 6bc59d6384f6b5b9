package card

import (
	"sort"
	"strings"
)

// Filter - вторичная клиентская фильтрация уже загруженной коллекции
type Filter struct {
	// Type - одиночный фильтр списка; пустое значение означает "все"
	Type Type
	// Types - множественный выбор карты; пустой набор означает "все"
	Types []Type
	// Query ищется в названии, адресе и тегах без учета регистра
	Query string
}

// Apply - чистая функция от коллекции и состояния фильтра, без обращений к хранилищу
func Apply(cards []Card, f Filter) []Card {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if f.Type != "" && NormalizeType(c.Type) != NormalizeType(f.Type) {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, NormalizeType(c.Type)) {
			continue
		}
		if query != "" && !matches(c, query) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// WithLocation оставляет карточки, которые можно показать на карте
func WithLocation(cards []Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		if HasValidLocation(c) {
			out = append(out, c)
		}
	}
	return out
}

// SortNewestFirst сортирует по createdAt по убыванию
func SortNewestFirst(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].CreatedAt > cards[j].CreatedAt
	})
}

func matches(c Card, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Address), query) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func containsType(types []Type, t Type) bool {
	for _, v := range types {
		if NormalizeType(v) == t {
			return true
		}
	}
	return false
}
