package auth

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(cmd.Context()); err != nil {
			return err
		}
		types.Printer(cmd).Success("Сессия закрыта")
		return nil
	},
}
