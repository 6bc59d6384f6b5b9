package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
	"cardkeeper/internal/app/client/backend"
)

var deleteYes bool

var DeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Удалить свою карточку",
	Long: `Удаляет карточку после подтверждения. Удаление несуществующей
карточки не считается ошибкой.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)
		id := args[0]

		col, err := app.Collection(cmd.Context(), backend.ScopeMine)
		if err != nil {
			return err
		}
		defer col.Close()

		if !deleteYes {
			name := id
			if c, ok := col.Get(id); ok {
				name = c.Name
			}
			ok, err := ui.Confirm("Удалить " + name + "?")
			if err != nil {
				return err
			}
			if !ok {
				out.Muted("Отменено")
				return nil
			}
		}

		// взвод и подтверждение подряд, ответ пользователя уже получен
		if _, err := col.RequestDelete(cmd.Context(), id); err != nil {
			return err
		}
		if _, err := col.RequestDelete(cmd.Context(), id); err != nil {
			return err
		}

		out.Success("Карточка удалена")
		return nil
	},
}

func init() {
	DeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "не спрашивать подтверждение")
}
