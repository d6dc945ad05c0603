package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trip представляет сохраненную поездку.
// Destination - представительное направление: имя первого города или название поездки.
type Trip struct {
	ID          int                 `db:"id" json:"id"`
	OwnerID     int64               `db:"owner_id" json:"owner_id"`
	Name        string              `db:"name" json:"name"`
	Destination string              `db:"destination" json:"destination"`
	StartDate   *time.Time          `db:"start_date" json:"start_date,omitempty"`
	EndDate     *time.Time          `db:"end_date" json:"end_date,omitempty"`
	Budget      decimal.NullDecimal `db:"budget" json:"budget"`
	Currency    string              `db:"currency" json:"currency,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	Cities      []TripCity          `db:"-" json:"cities"`
}

// TripCity представляет город, входящий в сохраненную поездку.
type TripCity struct {
	ID            int           `db:"id" json:"id"`
	TripID        int           `db:"trip_id" json:"trip_id"`
	Name          string        `db:"name" json:"name"`
	Country       *string       `db:"country" json:"country,omitempty"`
	Latitude      *float64      `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64      `db:"longitude" json:"longitude,omitempty"`
	OrderIndex    int           `db:"order_index" json:"order_index"` // порядок следования города в маршруте
	TransportMode TransportMode `db:"transport_mode" json:"transport_mode"`
	StartDate     *time.Time    `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time    `db:"end_date" json:"end_date,omitempty"`
}

// TripInput - данные для создания поездки.
type TripInput struct {
	OwnerID     int64               `json:"owner_id"`
	Name        string              `json:"name" binding:"required"`
	Destination string              `json:"destination"`
	StartDate   *time.Time          `json:"start_date,omitempty"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
	Budget      decimal.NullDecimal `json:"budget"`
	Currency    string              `json:"currency,omitempty"`
}

// CityInput - данные для создания города поездки.
type CityInput struct {
	Name          string        `json:"name" binding:"required"`
	Country       string        `json:"country,omitempty"`
	Latitude      *float64      `json:"latitude,omitempty"`
	Longitude     *float64      `json:"longitude,omitempty"`
	OrderIndex    int           `json:"order_index"`
	TransportMode TransportMode `json:"transport_mode"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
}

// TripDraft - черновик поездки, который изменяется только через шаги мастера.
// Города черновика хранятся в модели маршрута той же сессии.
type TripDraft struct {
	Name      string
	StartDate *time.Time
	EndDate   *time.Time
	Budget    decimal.NullDecimal
	Currency  string
}

// Coords возвращает координаты сохраненного города, если они известны.
func (c TripCity) Coords() *Coordinates {
	if c.Latitude == nil || c.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}
}
