package card

import (
	"errors"
)

var (
	ErrNotFound    = errors.New("card not found")
	ErrValidation  = errors.New("invalid card data")
	ErrForbidden   = errors.New("card belongs to another user")
	ErrSchemaDrift = errors.New("remote schema is missing a column")
)

// ValidationError описывает конкретное нарушенное поле
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ColumnError - хранилище не знает колонку из тела записи.
// Message - исходный текст ошибки базы, клиент ищет в нем имя колонки.
type ColumnError struct {
	Message string
}

func (e *ColumnError) Error() string {
	return e.Message
}

func (e *ColumnError) Unwrap() error {
	return ErrSchemaDrift
}
