package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <вопрос>",
	Short: "Спросить консьержа по своим карточкам",
	Long: `Отправляет вопрос и список своих карточек модели Gemini.
Ответ строится только по сохраненным карточкам. Нужен GEMINI_API_KEY.`,
	Example: `  cardkeeper ask "где поесть рыбу в Милане?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		answer, err := app.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := types.Printer(cmd)
		if out.JSON {
			return out.PrintJSON(map[string]string{"answer": answer})
		}
		out.Info("%s", answer)
		return nil
	},
}
