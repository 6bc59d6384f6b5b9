package user

import (
	"time"

	"cardkeeper/internal/domain/card"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Public - представление пользователя для клиента, без хэша пароля
func (u User) Public() card.User {
	return card.User{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: card.AvatarURL(u.Name),
	}
}
