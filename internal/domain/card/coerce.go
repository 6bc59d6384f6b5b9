package card

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

type columnKind int

const (
	kindText columnKind = iota
	kindTextArray
	kindInt
	kindFloat
	kindBool
)

var columnKinds = map[string]columnKind{
	ColUserID:        kindText,
	ColName:          kindText,
	ColType:          kindText,
	ColAddress:       kindText,
	ColPhone:         kindText,
	ColWebsite:       kindText,
	ColEmail:         kindText,
	ColNotes:         kindText,
	ColImageFront:    kindText,
	ColTags:          kindTextArray,
	ColServices:      kindTextArray,
	ColLikedBy:       kindTextArray,
	ColRating:        kindInt,
	ColCreatedAt:     kindInt,
	ColLat:           kindFloat,
	ColLng:           kindFloat,
	ColAverageCost:   kindFloat,
	ColBipConvention: kindBool,
}

// правила диапазонов для числовых колонок
var columnRules = map[string]string{
	ColRating:      "min=0,max=5",
	ColCreatedAt:   "min=0",
	ColLat:         "gte=-90,lte=90",
	ColLng:         "gte=-180,lte=180",
	ColAverageCost: "gte=0",
}

// Coerce приводит тело записи из JSON к типам колонок и проверяет диапазоны.
// Неизвестные колонки отклоняются, nil остается NULL.
func Coerce(v *validator.Validate, in Payload) (Payload, error) {
	out := make(Payload, len(in))
	for col, raw := range in {
		kind, ok := columnKinds[col]
		if !ok {
			return nil, &ValidationError{Field: col, Message: "unknown field"}
		}

		val, err := coerceValue(kind, raw)
		if err != nil {
			return nil, &ValidationError{Field: col, Message: err.Error()}
		}

		if rule, ok := columnRules[col]; ok && val != nil {
			if err := v.Var(val, rule); err != nil {
				return nil, &ValidationError{Field: col, Message: "value out of range"}
			}
		}
		out[col] = val
	}

	if out.Has(ColType) {
		if s, ok := out[ColType].(string); ok && s != "" {
			t := NormalizeType(Type(s))
			if !t.Valid() {
				return nil, &ValidationError{Field: ColType, Message: "unknown type " + s}
			}
			out[ColType] = string(t)
		}
	}
	if out.Has(ColLikedBy) {
		if ids, ok := out[ColLikedBy].([]string); ok {
			out[ColLikedBy] = dedupe(ids)
		}
	}
	return out, nil
}

func coerceValue(kind columnKind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch kind {
	case kindText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil
	case kindTextArray:
		return toStrings(raw)
	case kindInt:
		f, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("must be an integer")
		}
		return int64(f), nil
	case kindFloat:
		f, err := toFloat(raw)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("must be a finite number")
		}
		return f, nil
	case kindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported column")
}

func toStrings(raw any) ([]string, error) {
	switch vals := raw.(type) {
	case []string:
		return vals, nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("must be a list of strings")
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	}
	return nil, fmt.Errorf("must be a list of strings")
}

func toFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("must be a number")
}
