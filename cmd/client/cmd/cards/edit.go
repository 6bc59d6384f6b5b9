package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/internal/domain/card"
)

var editFields cardFlags

var EditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Изменить свою карточку",
	Long: `Меняет только переданные поля. Если изменился адрес, а координаты
не заданы, старые координаты сбрасываются и определяются заново.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		// флаги проверяются до загрузки, чтобы не сохранить карточку наполовину
		if err := editFields.apply(cmd, &card.Card{}); err != nil {
			return err
		}

		updated, err := app.EditCard(cmd.Context(), args[0], func(c *card.Card) {
			_ = editFields.apply(cmd, c)
		})
		if err != nil {
			return err
		}

		return types.Printer(cmd).Card(*updated)
	},
}

func init() {
	editFields.register(EditCmd)
}
