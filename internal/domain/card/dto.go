package card

// Имена колонок удаленного хранилища (snake_case)
const (
	ColID            = "id"
	ColUserID        = "user_id"
	ColName          = "name"
	ColType          = "type"
	ColAddress       = "address"
	ColPhone         = "phone"
	ColWebsite       = "website"
	ColEmail         = "email"
	ColTags          = "tags"
	ColServices      = "services"
	ColBipConvention = "bip_convention"
	ColNotes         = "notes"
	ColRating        = "rating"
	ColAverageCost   = "average_cost"
	ColImageFront    = "image_front"
	ColCreatedAt     = "created_at"
	ColLat           = "lat"
	ColLng           = "lng"
	ColLikedBy       = "liked_by"
)

// WritableColumns - колонки, которые клиент может передавать при записи
var WritableColumns = []string{
	ColUserID, ColName, ColType, ColAddress, ColPhone, ColWebsite, ColEmail,
	ColTags, ColServices, ColBipConvention, ColNotes, ColRating, ColAverageCost,
	ColImageFront, ColCreatedAt, ColLat, ColLng, ColLikedBy,
}

// Payload - тело записи в удаленное хранилище. Отсутствующий ключ означает
// "колонку не трогать", ключ со значением nil - записать NULL.
type Payload map[string]any

// Row - запись в том виде, в котором ее отдает удаленное хранилище
type Row struct {
	ID            string   `json:"id"`
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Address       string   `json:"address"`
	Phone         string   `json:"phone"`
	Website       string   `json:"website"`
	Email         string   `json:"email"`
	Tags          []string `json:"tags"`
	Services      []string `json:"services"`
	BipConvention *bool    `json:"bip_convention"`
	Notes         string   `json:"notes"`
	Rating        int      `json:"rating"`
	AverageCost   *float64 `json:"average_cost"`
	ImageFront    string   `json:"image_front"`
	CreatedAt     int64    `json:"created_at"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	LikedBy       []string `json:"liked_by"`
}

// ToPayload переводит карточку в snake_case тело записи (без id)
func ToPayload(c Card) Payload {
	p := Payload{
		ColUserID:     c.UserID,
		ColName:       c.Name,
		ColType:       string(c.Type),
		ColAddress:    c.Address,
		ColPhone:      c.Phone,
		ColWebsite:    c.Website,
		ColEmail:      c.Email,
		ColTags:       nonNil(c.Tags),
		ColServices:   nonNil(c.Services),
		ColNotes:      c.Notes,
		ColRating:     c.Rating,
		ColImageFront: c.ImageFront,
		ColCreatedAt:  c.CreatedAt,
		ColLikedBy:    nonNil(c.LikedBy),
	}
	p[ColBipConvention] = nil
	if c.BipConvention != nil {
		p[ColBipConvention] = *c.BipConvention
	}
	p[ColAverageCost] = nil
	if c.AverageCost != nil {
		p[ColAverageCost] = *c.AverageCost
	}
	p[ColLat], p[ColLng] = nil, nil
	if c.Lat != nil && c.Lng != nil {
		p[ColLat], p[ColLng] = *c.Lat, *c.Lng
	}
	return p
}

// Clone копирует верхний уровень тела записи
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Has проверяет наличие колонки в теле
func (p Payload) Has(col string) bool {
	_, ok := p[col]
	return ok
}

// ToCard переводит строку удаленного хранилища в карточку и нормализует ее
func (r Row) ToCard() Card {
	c := Card{
		ID:            r.ID,
		UserID:        r.UserID,
		Name:          r.Name,
		Type:          Type(r.Type),
		Address:       r.Address,
		Phone:         r.Phone,
		Website:       r.Website,
		Email:         r.Email,
		Tags:          r.Tags,
		Services:      r.Services,
		BipConvention: r.BipConvention,
		Notes:         r.Notes,
		Rating:        r.Rating,
		AverageCost:   r.AverageCost,
		ImageFront:    r.ImageFront,
		CreatedAt:     r.CreatedAt,
		Lat:           r.Lat,
		Lng:           r.Lng,
		LikedBy:       r.LikedBy,
		Status:        StatusRemote,
	}
	Normalize(&c)
	return c
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
