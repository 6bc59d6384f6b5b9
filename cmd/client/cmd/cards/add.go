package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/cmd/client/cmd/ui"
	"cardkeeper/internal/domain/card"
)

var (
	addFields cardFlags
	addScan   string
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Создать карточку",
	Long: `Создает карточку текущего пользователя.

С --scan поля предзаполняются распознаванием фото визитки, флаги
перекрывают распознанные значения. Если адрес задан, а координаты нет,
они определяются геокодером; неудача геокодирования не мешает сохранению.`,
	Example: `  cardkeeper cards add -n "Trattoria da Mario" -t Ristorante -a "Via Roma 1, Milano" --tags pesce,vino -r 4
  cardkeeper cards add --scan ./biglietto.jpg`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		draft := card.Card{Type: card.TypeRestaurant}
		if addScan != "" {
			if draft, err = app.ScanCard(cmd.Context(), addScan); err != nil {
				return err
			}
			out.Muted("Распознано: %s", draft.Name)
		}

		if err := addFields.apply(cmd, &draft); err != nil {
			return err
		}
		if draft.Name == "" {
			if draft.Name, err = ui.Prompt("Название", ""); err != nil {
				return err
			}
		}

		if err := app.SaveCard(cmd.Context(), &draft); err != nil {
			return err
		}

		if out.JSON {
			return out.PrintJSON(draft)
		}
		out.Success("Карточка %s сохранена (%s)", draft.Name, draft.ID)
		if draft.Address != "" && !card.HasValidLocation(draft) {
			out.Warn("Адрес не найден геокодером, карточка не появится на карте")
		}
		return nil
	},
}

func init() {
	addFields.register(AddCmd)
	AddCmd.Flags().StringVar(&addScan, "scan", "", "фото визитки для распознавания")
}
