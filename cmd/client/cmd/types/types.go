package types

import (
	"errors"

	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/ui"
	"cardkeeper/internal/app/client"
)

type contextKey string

// ClientAppKey - ключ приложения в контексте команды
const ClientAppKey contextKey = "app"

var ErrNoApp = errors.New("приложение не инициализировано")

// App достает приложение, собранное в PersistentPreRunE
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// Printer учитывает глобальный флаг --json
func Printer(cmd *cobra.Command) *ui.Printer {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return ui.NewPrinter(jsonOutput)
}
