package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var LikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Поставить или снять лайк",
	Long: `Переключает отметку текущего пользователя на карточке.
В облачном режиме операция не атомарна: при одновременных лайках
побеждает последняя запись.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		col, err := locate(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}
		defer col.Close()

		if err := col.ToggleLike(cmd.Context(), args[0]); err != nil {
			return err
		}

		c, _ := col.Get(args[0])
		if c.LikedByUser(col.Session().ID) {
			out.Success("♥ %s (%d)", c.Name, len(c.LikedBy))
		} else {
			out.Success("Лайк снят: %s (%d)", c.Name, len(c.LikedBy))
		}
		return nil
	},
}
