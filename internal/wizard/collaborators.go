package wizard

import (
	"context"

	"tripplanner/internal/model"
)

// Geocoder ищет города по названию и определяет место по координатам.
type Geocoder interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (model.Place, error)
}

// LocationProvider запрашивает разрешение на геолокацию и текущую позицию устройства.
type LocationProvider interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (model.Coordinates, error)
}

// TripAPI создает и читает поездки.
type TripAPI interface {
	CreateTrip(ctx context.Context, in model.TripInput) (*model.Trip, error)
	GetTrip(ctx context.Context, id int) (*model.Trip, error)
}

// CityAPI создает города поездки.
type CityAPI interface {
	CreateCity(ctx context.Context, tripID int, in model.CityInput) (*model.TripCity, error)
}

// Overlay - регистрация открытого мастера у хоста (например, чтобы скрыть
// посторонние элементы интерфейса). Release должен вызываться ровно один раз.
type Overlay interface {
	Acquire() (release func())
}
