package cards

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cardkeeper/internal/app/client"
	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/app/client/view"
	"cardkeeper/internal/domain/card"
)

// CardsCmd - родительская команда для операций с карточками
var CardsCmd = &cobra.Command{
	Use:     "cards",
	Aliases: []string{"card"},
	Short:   "Управление карточками",
	Long: `Просмотр, создание, изменение и удаление визиток.

Свои карточки видны в области mine, чужие (только в облачном режиме) - в community.
Чужую карточку можно лайкнуть или импортировать себе копией.`,
}

func init() {
	CardsCmd.AddCommand(ListCmd, GetCmd, AddCmd, EditCmd, DeleteCmd, LikeCmd, ImportCmd, ScanCmd)
}

// locate находит область, в которой видна карточка: сначала свои, затем сообщество.
// Вызывающий закрывает коллекцию.
func locate(ctx context.Context, app *client.App, id string) (*view.Collection, error) {
	for _, scope := range []backend.Scope{backend.ScopeMine, backend.ScopeCommunity} {
		if scope == backend.ScopeCommunity && !app.CloudActive() {
			break
		}
		col, err := app.Collection(ctx, scope)
		if err != nil {
			return nil, err
		}
		if _, ok := col.Get(id); ok {
			return col, nil
		}
		col.Close()
	}
	return nil, fmt.Errorf("карточка %s: %w", id, card.ErrNotFound)
}
