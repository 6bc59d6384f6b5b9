package cmd

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Работа с координатами",
}

var geocodeFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Восстановить координаты своих карточек",
	Long: `Для каждой своей карточки с адресом, но без координат, запрашивает
геокодер (от полного адреса к более общим вариантам) и сохраняет найденные
координаты. Между запросами выдерживается пауза GEOCODE_DELAY_MS.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		out.Muted("Поиск координат...")
		report, err := app.RepairLocations(cmd.Context())
		if err != nil {
			return err
		}

		if out.JSON {
			return out.PrintJSON(report)
		}
		out.Success("Исправлено: %d", report.Fixed)
		if report.Failed > 0 {
			out.Warn("Не найдено: %d", report.Failed)
		}
		if report.Skipped > 0 {
			out.Muted("Пропущено: %d", report.Skipped)
		}
		return nil
	},
}

func init() {
	geocodeCmd.AddCommand(geocodeFixCmd)
}
