package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
)

var ChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Изменить пароль",
	Long: `Меняет пароль текущего пользователя на сервере.
Открытые сессии остаются действительными.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		password, err := ui.Password("Новый пароль")
		if err != nil {
			return err
		}
		confirm, err := ui.Password("Повторите пароль")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("пароли не совпадают")
		}

		if err := app.UpdatePassword(cmd.Context(), password); err != nil {
			return err
		}
		types.Printer(cmd).Success("Пароль изменен")
		return nil
	},
}
