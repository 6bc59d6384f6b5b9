package cards

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardkeeper/cmd/client/cmd/types"
	"cardkeeper/internal/app/client/backend"
	"cardkeeper/internal/domain/card"
)

var (
	mapScope string
	mapTypes []string
)

// MapCmd печатает точки для карты: только карточки с обеими координатами
var MapCmd = &cobra.Command{
	Use:   "map",
	Short: "Карточки с координатами",
	Long: `Показывает карточки, у которых есть обе координаты, со ссылкой
на OpenStreetMap. Фильтр --types допускает несколько значений.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		out := types.Printer(cmd)

		scope, err := backend.ParseScope(mapScope)
		if err != nil {
			return err
		}

		var filter card.Filter
		for _, raw := range mapTypes {
			t, ok := card.ParseType(raw)
			if !ok {
				return &card.ValidationError{Field: "type", Message: "unknown type " + raw}
			}
			filter.Types = append(filter.Types, t)
		}

		col, err := app.Collection(cmd.Context(), scope)
		if err != nil {
			return err
		}
		defer col.Close()

		points := col.Locations(filter)
		if out.JSON {
			return out.PrintJSON(points)
		}
		if len(points) == 0 {
			out.Muted("Нет карточек с координатами. Попробуйте: cardkeeper geocode fix")
			return nil
		}

		for _, c := range points {
			out.Info("%-30s %-10s %9.5f %10.5f", c.Name, c.Type, *c.Lat, *c.Lng)
			out.Muted("  %s", osmLink(*c.Lat, *c.Lng))
		}
		return nil
	},
}

func osmLink(lat, lng float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.5f&mlon=%.5f#map=17/%.5f/%.5f", lat, lng, lat, lng)
}

func init() {
	MapCmd.Flags().StringVarP(&mapScope, "scope", "s", string(backend.ScopeMine), "область: mine или community")
	MapCmd.Flags().StringSliceVarP(&mapTypes, "types", "t", nil, "типы через запятую")
}
