package auth

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var WhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Текущий пользователь",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		u, err := app.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		if out.JSON {
			return out.PrintJSON(u)
		}
		if u == nil {
			out.Muted("Вход не выполнен")
			return nil
		}

		mode := "локальный"
		if app.CloudActive() {
			mode = "облачный"
		}
		out.Info("%s <%s>", u.Name, u.Email)
		out.Muted("id %s · режим: %s", u.ID, mode)
		return nil
	},
}
