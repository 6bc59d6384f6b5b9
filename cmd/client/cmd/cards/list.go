package cards

import (
	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

var (
	listScope string
	listType  string
	listQuery string
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список карточек",
	Long: `Показывает карточки области видимости, новые первыми.

Фильтры --type и --query применяются к уже загруженному списку.
Поиск идет по названию, адресу и тегам без учета регистра.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		scope, err := backend.ParseScope(listScope)
		if err != nil {
			return err
		}

		filter := card.Filter{Query: listQuery}
		if listType != "" {
			t, ok := card.ParseType(listType)
			if !ok {
				return &card.ValidationError{Field: "type", Message: "unknown type " + listType}
			}
			filter.Type = t
		}

		col, err := app.Collection(cmd.Context(), scope)
		if err != nil {
			return err
		}
		defer col.Close()

		return types.Printer(cmd).Cards(col.Visible(filter), col.Session().ID)
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listScope, "scope", "s", string(backend.ScopeMine), "область: mine или community")
	ListCmd.Flags().StringVarP(&listType, "type", "t", "", "фильтр по типу")
	ListCmd.Flags().StringVarP(&listQuery, "query", "q", "", "поиск по названию, адресу и тегам")
}
