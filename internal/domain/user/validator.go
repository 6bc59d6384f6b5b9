package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLen     = 100
	MinPasswordLen = 6
	// bcrypt учитывает только первые 72 байта
	MaxPasswordLen = 72
)

// Validator - интерфейс для валидации пользовательских данных
type Validator interface {
	ValidateRegister(name, email, password string) error
	ValidateEmail(email string) error
	ValidatePassword(password string) error
}

type registerInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

type StructValidator struct {
	v *validator.Validate
}

// NewValidator создает валидатор на тегах go-playground/validator
func NewValidator() *StructValidator {
	return &StructValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateRegister валидирует данные для регистрации
func (s *StructValidator) ValidateRegister(name, email, password string) error {
	in := registerInput{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if err := s.v.Struct(in); err != nil {
		return describe(err)
	}
	return nil
}

func (s *StructValidator) ValidateEmail(email string) error {
	if err := s.v.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return fmt.Errorf("email: %w", describe(err))
	}
	return nil
}

func (s *StructValidator) ValidatePassword(password string) error {
	if err := s.v.Var(password, "required,min=6,max=72"); err != nil {
		return fmt.Errorf("password: %w", describe(err))
	}
	return nil
}

// describe превращает ошибки валидатора в короткий текст
func describe(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	msgs := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
