package client

import (
	"context"
	"errors"
	"net"

	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/backend/local"
	"cardkeeper/internal/app/client/backend/remote"
	"cardkeeper/internal/app/client/ocr"
	"cardkeeper/internal/domain/card"
)

// FallbackMessage - ответ для ошибок, которые не удалось классифицировать
const FallbackMessage = "Something went wrong. Please try again."

// Humanize превращает ошибку в одно сообщение для пользователя.
// Сырые ответы сервера наружу не попадают.
func Humanize(err error) string {
	if err == nil {
		return ""
	}

	var vErr *card.ValidationError
	var apiErr *remote.APIError
	var netErr net.Error

	switch {
	case errors.As(err, &vErr):
		return "Invalid " + vErr.Field + ": " + vErr.Message + "."
	case errors.Is(err, backend.ErrPasswordRequired):
		return "A password is required to sign in to the cloud."
	case errors.Is(err, ErrPasswordTooShort):
		return "The password must be at least 6 characters long."
	case errors.Is(err, backend.ErrBadCredentials):
		return "Wrong email or password."
	case errors.Is(err, backend.ErrUnknownUser):
		return "No account found for this email."
	case errors.Is(err, backend.ErrNoSession):
		return "You are not signed in or your session has expired. Please log in."
	case errors.Is(err, card.ErrNotFound):
		return "This card no longer exists."
	case errors.Is(err, card.ErrForbidden):
		return "You can only change your own cards."
	case errors.Is(err, card.ErrSchemaDrift):
		return "The server database is missing a column this app needs. Ask the operator to apply the latest migrations."
	case errors.Is(err, local.ErrCorrupted):
		return "Local data on this device is damaged and was left untouched. Restore it from a backup."
	case errors.Is(err, ocr.ErrNotConfigured):
		return "AI features are not configured (set GEMINI_API_KEY)."
	case errors.Is(err, context.DeadlineExceeded):
		return "The operation timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "The operation was canceled."
	case errors.As(err, &apiErr):
		if apiErr.Status >= 500 {
			return "The server is having trouble. Please try again later."
		}
		if apiErr.Message != "" {
			return "The server rejected the request: " + apiErr.Message
		}
		return "The server rejected the request."
	case errors.As(err, &netErr):
		return "Cannot reach the server. Check your connection."
	default:
		return FallbackMessage
	}
}
