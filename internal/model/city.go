package model

import "time"

// City - пункт назначения в черновике поездки.
// OrderIndex - позиция города в маршруте (с нуля), TransportMode - выбранный
// пользователем способ передвижения на входящем перегоне (nil, если не выбран).
type City struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Country       string         `json:"country,omitempty"`
	Coords        *Coordinates   `json:"coords,omitempty"`
	OrderIndex    int            `json:"order_index"`
	TransportMode *TransportMode `json:"transport_mode,omitempty"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
}

// CityFromPlace создает кандидата в маршрут из результата геокодирования.
func CityFromPlace(p Place) City {
	coords := p.Coordinates()
	return City{Name: p.Name, Country: p.Country, Coords: &coords}
}

// Point возвращает город как конечную точку перегона.
func (c City) Point() Point {
	return Point{CityID: c.ID, Name: c.Name, Country: c.Country, Coords: c.Coords}
}
