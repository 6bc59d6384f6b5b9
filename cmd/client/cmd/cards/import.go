package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/internal/app/client/backend"
)

var ImportCmd = &cobra.Command{
	Use:   "import <id>",
	Short: "Скопировать карточку сообщества себе",
	Long: `Создает собственную копию чужой карточки с новым id, пустыми
лайками и текущим временем создания. Оригинал не меняется.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		col, err := app.Collection(cmd.Context(), backend.ScopeCommunity)
		if err != nil {
			return err
		}
		defer col.Close()

		dup, err := col.Import(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := types.Printer(cmd)
		if out.JSON {
			return out.PrintJSON(dup)
		}
		out.Success("Импортировано: %s (%s)", dup.Name, dup.ID)
		return nil
	},
}
