package cards

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cardkeeper/internal/domain/card"
)

// cardFlags - поля карточки, которые можно задать из командной строки
type cardFlags struct {
	name          string
	cardType      string
	address       string
	phone         string
	website       string
	email         string
	tags          []string
	services      []string
	notes         string
	rating        int
	averageCost   float64
	bip           bool
	lat, lng      float64
	clearLocation bool
}

func (f *cardFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.name, "name", "n", "", "название")
	fs.StringVarP(&f.cardType, "type", "t", "", "тип: Ristorante, Hotel или Esperienze")
	fs.StringVarP(&f.address, "address", "a", "", "адрес")
	fs.StringVar(&f.phone, "phone", "", "телефон")
	fs.StringVar(&f.website, "website", "", "сайт")
	fs.StringVar(&f.email, "email", "", "email")
	fs.StringSliceVar(&f.tags, "tags", nil, "теги через запятую")
	fs.StringSliceVar(&f.services, "services", nil, "услуги отеля через запятую")
	fs.StringVar(&f.notes, "notes", "", "заметки")
	fs.IntVarP(&f.rating, "rating", "r", 0, "рейтинг от 0 до 5")
	fs.Float64Var(&f.averageCost, "cost", 0, "средний чек, €")
	fs.BoolVar(&f.bip, "bip", false, "конвенция BIP")
	fs.Float64Var(&f.lat, "lat", 0, "широта")
	fs.Float64Var(&f.lng, "lng", 0, "долгота")
	fs.BoolVar(&f.clearLocation, "clear-location", false, "удалить координаты")
}

// apply переносит в карточку только явно заданные флаги
func (f *cardFlags) apply(cmd *cobra.Command, c *card.Card) error {
	changed := cmd.Flags().Changed

	if changed("name") {
		c.Name = f.name
	}
	if changed("type") {
		t, ok := card.ParseType(f.cardType)
		if !ok {
			return &card.ValidationError{Field: "type", Message: fmt.Sprintf("unknown type %q", f.cardType)}
		}
		c.Type = t
	}
	if changed("address") {
		c.Address = f.address
	}
	if changed("phone") {
		c.Phone = f.phone
	}
	if changed("website") {
		c.Website = f.website
	}
	if changed("email") {
		c.Email = f.email
	}
	if changed("tags") {
		c.Tags = trimAll(f.tags)
	}
	if changed("services") {
		c.Services = trimAll(f.services)
	}
	if changed("notes") {
		c.Notes = f.notes
	}
	if changed("rating") {
		c.Rating = f.rating
	}
	if changed("cost") {
		cost := f.averageCost
		c.AverageCost = &cost
	}
	if changed("bip") {
		bip := f.bip
		c.BipConvention = &bip
	}

	switch {
	case f.clearLocation:
		c.ClearLocation()
	case changed("lat") != changed("lng"):
		return &card.ValidationError{Field: "lat", Message: "lat and lng must be set together"}
	case changed("lat"):
		c.SetLocation(f.lat, f.lng)
	}

	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
