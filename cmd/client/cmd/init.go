package cmd

import (
	"cardkeeper/cmd/client/cmd/auth"
	"cardkeeper/cmd/client/cmd/cards"
	"cardkeeper/cmd/client/cmd/shell"
)

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(cards.CardsCmd)
	rootCmd.AddCommand(cards.MapCmd)
	rootCmd.AddCommand(geocodeCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(shell.ShellCmd)
}
