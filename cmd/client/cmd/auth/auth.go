package auth

import (
	"github.com/spf13/cobra"
)

// AuthCmd - родительская команда для всех операций с сессией пользователя
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление пользователем",
	Long: `Вход, регистрация, выход, сброс и смена пароля.

В локальном режиме пароль не нужен: пользователь определяется по email.`,
}

func init() {
	AuthCmd.AddCommand(LoginCmd, RegisterCmd, LogoutCmd, WhoamiCmd, ResetPasswordCmd, ChangePasswordCmd)
}
