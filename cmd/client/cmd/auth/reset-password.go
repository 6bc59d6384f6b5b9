package auth

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
)

var ResetPasswordCmd = &cobra.Command{
	Use:   "reset-password [email]",
	Short: "Запросить сброс пароля",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		var email string
		if len(args) == 1 {
			email = args[0]
		} else if email, err = ui.Prompt("Email", ""); err != nil {
			return err
		}

		if err := app.ResetPassword(cmd.Context(), email); err != nil {
			return err
		}
		// ответ одинаковый для существующих и несуществующих адресов
		types.Printer(cmd).Success("Если адрес зарегистрирован, инструкции отправлены на %s", email)
		return nil
	},
}
