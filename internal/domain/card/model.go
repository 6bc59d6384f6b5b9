package card

import "net/url"

// Card - визитка заведения: контакты, классификация и социальные метаданные
type Card struct {
	ID            string   `json:"id"`
	UserID        string   `json:"userId"`
	Name          string   `json:"name"`
	Type          Type     `json:"type"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	Website       string   `json:"website"`
	Email         string   `json:"email"`
	Tags          []string `json:"tags"`
	Services      []string `json:"services,omitempty"`
	BipConvention *bool    `json:"bipConvention,omitempty"`
	Notes         string   `json:"notes"`
	Rating        int      `json:"rating"`
	AverageCost   *float64 `json:"averageCost,omitempty"`
	ImageFront    string   `json:"imageFront,omitempty"`
	CreatedAt     int64    `json:"createdAt"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	LikedBy       []string `json:"likedBy"`

	// Status не сериализуется: его выставляет бэкенд, прочитавший запись
	Status Status `json:"-"`
}

// Status - где запись уже сохранена
type Status int

const (
	StatusNew Status = iota
	StatusLocal
	StatusRemote
)

func (s Status) String() string {
	switch s {
	case StatusLocal:
		return "local"
	case StatusRemote:
		return "remote"
	default:
		return "new"
	}
}

// User - владелец карточек
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// HotelAmenities - распознаваемый словарь услуг отеля (не валидируется строго)
var HotelAmenities = []string{
	"Parcheggio Gratis",
	"Parcheggio a Pagamento",
	"WiFi",
	"Palestra",
	"Piscina",
	"Spa",
	"Ristorante Interno",
	"Colazione Inclusa",
	"Meeting Room",
	"Pet Friendly",
	"Bar / Lounge",
	"Navetta Aeroporto",
	"Servizio in Camera",
	"Reception 24h",
}

// Clone возвращает глубокую копию карточки
func (c Card) Clone() Card {
	out := c
	out.Tags = cloneStrings(c.Tags)
	out.Services = cloneStrings(c.Services)
	out.LikedBy = cloneStrings(c.LikedBy)
	if c.BipConvention != nil {
		v := *c.BipConvention
		out.BipConvention = &v
	}
	if c.AverageCost != nil {
		v := *c.AverageCost
		out.AverageCost = &v
	}
	if c.Lat != nil {
		v := *c.Lat
		out.Lat = &v
	}
	if c.Lng != nil {
		v := *c.Lng
		out.Lng = &v
	}
	return out
}

// LikedByUser проверяет, лайкнул ли пользователь карточку
func (c Card) LikedByUser(userID string) bool {
	for _, id := range c.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SetLocation выставляет обе координаты сразу
func (c *Card) SetLocation(lat, lng float64) {
	c.Lat = &lat
	c.Lng = &lng
}

// ClearLocation сбрасывает обе координаты
func (c *Card) ClearLocation() {
	c.Lat = nil
	c.Lng = nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// AvatarURL строит ссылку на аватар по умолчанию из имени пользователя
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=10b981&color=fff"
}
