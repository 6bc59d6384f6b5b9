package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var ScanCmd = &cobra.Command{
	Use:   "scan <image>",
	Short: "Распознать визитку по фото",
	Long: `Извлекает поля визитки моделью Gemini и печатает черновик.
Ничего не сохраняет: для сохранения используйте cards add --scan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		draft, err := app.ScanCard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		// превью фото в терминале не нужно
		draft.ImageFront = ""

		return types.Printer(cmd).Card(draft)
	},
}
