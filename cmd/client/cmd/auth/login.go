package auth

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
)

var loginEmail string

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти",
	Long: `Открывает сессию. В облачном режиме токен сохраняется локально
и используется следующими командами до выхода или истечения.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		email := loginEmail
		if email == "" {
			if email, err = ui.Prompt("Email", ""); err != nil {
				return err
			}
		}

		var password string
		if app.CloudActive() {
			if password, err = ui.Password("Пароль"); err != nil {
				return err
			}
		}

		u, err := app.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		out.Success("Добро пожаловать, %s", u.Name)
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "email пользователя")
}
