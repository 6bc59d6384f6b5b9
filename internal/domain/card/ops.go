package card

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	IDPrefix  = "card_"
	MaxRating = 5
)

// NewID генерирует временный клиентский идентификатор вида card_<ms>_<rand>
func NewID(now time.Time) string {
	return IDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.FormatUint(rand.Uint64()%(1<<45), 36)
}

// Validate проверяет карточку перед любой записью в хранилище
func Validate(c *Card) error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	// пустой тип допустим: сервер подставит Ristorante
	if c.Type != "" && !NormalizeType(c.Type).Valid() {
		return &ValidationError{Field: "type", Message: "unknown type " + string(c.Type)}
	}
	if c.Rating < 0 || c.Rating > MaxRating {
		return &ValidationError{Field: "rating", Message: "rating must be between 0 and 5"}
	}
	if c.AverageCost != nil && (*c.AverageCost < 0 || math.IsNaN(*c.AverageCost)) {
		return &ValidationError{Field: "averageCost", Message: "average cost must be non-negative"}
	}
	if (c.Lat == nil) != (c.Lng == nil) {
		return &ValidationError{Field: "lat", Message: "lat and lng must be set together"}
	}
	return nil
}

// PrepareForSave очищает поля, которые нельзя хранить постоянно.
// Фото визитки нужно только для распознавания и превью.
func PrepareForSave(c *Card) {
	c.ImageFront = ""
	c.Name = strings.TrimSpace(c.Name)
	c.Type = NormalizeType(c.Type)
	c.LikedBy = dedupe(emptyIfNil(c.LikedBy))
	c.Tags = emptyIfNil(c.Tags)
	c.Services = emptyIfNil(c.Services)
}

// Normalize приводит прочитанную запись к актуальному виду.
// Применяется на каждой границе чтения и никогда не пишется обратно сам по себе.
func Normalize(c *Card) {
	c.Type = NormalizeType(c.Type)
	c.LikedBy = dedupe(emptyIfNil(c.LikedBy))
	c.Tags = emptyIfNil(c.Tags)
	c.Services = emptyIfNil(c.Services)
	if (c.Lat == nil) != (c.Lng == nil) {
		c.ClearLocation()
	}
}

// HasValidLocation - обе координаты заданы, конечны и не равны нулю
func HasValidLocation(c Card) bool {
	if c.Lat == nil || c.Lng == nil {
		return false
	}
	lat, lng := *c.Lat, *c.Lng
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat != 0 && lng != 0
}

// NeedsGeocoding - есть адрес, но нет пригодных координат.
// Нулевая координата считается отсутствующей, как и на карте.
func NeedsGeocoding(c Card) bool {
	return strings.TrimSpace(c.Address) != "" && !HasValidLocation(c)
}

// ToggleLike переключает принадлежность userID множеству likedBy.
// Двойной вызов возвращает исходное множество.
func ToggleLike(likedBy []string, userID string) []string {
	out := make([]string, 0, len(likedBy)+1)
	found := false
	for _, id := range likedBy {
		if id == userID {
			found = true
			continue
		}
		out = append(out, id)
	}
	if !found {
		out = append(out, userID)
	}
	return dedupe(out)
}

// Duplicate создает копию карточки для другого владельца ("импорт")
func Duplicate(src Card, newOwnerID string, now time.Time) Card {
	dup := src.Clone()
	dup.ID = NewID(now)
	dup.UserID = newOwnerID
	dup.LikedBy = []string{}
	dup.ImageFront = ""
	dup.Status = StatusNew

	createdAt := now.UnixMilli()
	if createdAt <= src.CreatedAt {
		createdAt = src.CreatedAt + 1
	}
	dup.CreatedAt = createdAt

	return dup
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func dedupe(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
