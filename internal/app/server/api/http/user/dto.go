package user

import "cardkeeper/internal/domain/card"

type registerInput struct {
	Body RegisterRequest
}

type RegisterRequest struct {
	Name     string `json:"name" doc:"Отображаемое имя" maxLength:"100"`
	Email    string `json:"email" doc:"Email, он же логин"`
	Password string `json:"password" doc:"Пароль, от 6 символов"`
}

type loginInput struct {
	Body LoginRequest
}

type LoginRequest struct {
	Email    string `json:"email" doc:"Email"`
	Password string `json:"password" doc:"Пароль"`
}

type authOutput struct {
	Body AuthResponse
}

type AuthResponse struct {
	Token string    `json:"token" doc:"Bearer токен сессии"`
	User  card.User `json:"user"`
}

type meOutput struct {
	Body card.User
}

type resetInput struct {
	Body struct {
		Email string `json:"email" doc:"Email аккаунта"`
	}
}

type changePasswordInput struct {
	Body struct {
		Password string `json:"password" doc:"Новый пароль, от 6 символов"`
	}
}
