package card

import "strings"

type Type string

const (
	TypeRestaurant Type = "Ristorante"
	TypeHotel      Type = "Hotel"
	TypeExperience Type = "Esperienze"

	// legacyExperience - старое название категории, встречается в ранних записях
	legacyExperience Type = "Altro"
)

// Types - допустимые значения в порядке отображения
var Types = []Type{TypeRestaurant, TypeHotel, TypeExperience}

// NormalizeType переводит устаревший синоним в каноническое значение.
// Неизвестные значения возвращаются как есть: чтение никогда не отвергает запись.
func NormalizeType(t Type) Type {
	if t == legacyExperience {
		return TypeExperience
	}
	return t
}

// ParseType разбирает пользовательский ввод без учета регистра
func ParseType(s string) (Type, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(legacyExperience)) {
		return TypeExperience, true
	}
	for _, t := range Types {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

func (t Type) Valid() bool {
	switch t {
	case TypeRestaurant, TypeHotel, TypeExperience:
		return true
	}
	return false
}
