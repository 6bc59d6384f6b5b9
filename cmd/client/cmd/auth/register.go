package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
)

var (
	registerName  string
	registerEmail string
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Создать пользователя",
	Long: `Регистрирует пользователя и сразу открывает сессию.
В облачном режиме пароль должен содержать минимум 6 символов.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		name, email := registerName, registerEmail
		if name == "" {
			if name, err = ui.Prompt("Имя", ""); err != nil {
				return err
			}
		}
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
			confirm, err := ui.Password("Повторите пароль")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("пароли не совпадают")
			}
		}

		u, err := app.Register(cmd.Context(), name, email, password)
		if err != nil {
			return err
		}

		out.Success("Пользователь %s зарегистрирован", u.Email)
		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVarP(&registerName, "name", "n", "", "имя")
	RegisterCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "email")
}
