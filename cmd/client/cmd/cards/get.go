package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
)

var GetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Показать карточку",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		c, err := app.GetCard(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return types.Printer(cmd).Card(*c)
	},
}
