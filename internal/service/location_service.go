package service

import (
	"context"
	"strings"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
)

// MaxSearchResults ограничивает количество кандидатов в одном ответе поиска.
const MaxSearchResults = 10

// Geocoder - источник результатов геокодирования (см. internal/geocode).
type Geocoder interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (model.Place, error)
}

// LocationService содержит бизнес-логику поиска городов.
type LocationService struct {
	geocoder Geocoder
}

// NewLocationService создает новый сервис поиска городов.
func NewLocationService(geocoder Geocoder) *LocationService {
	return &LocationService{geocoder: geocoder}
}

// SearchCities ищет города по названию. limit приводится к диапазону [1, MaxSearchResults].
func (s *LocationService) SearchCities(ctx context.Context, query string, limit int) ([]model.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Place{}, nil
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	places, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

// ReverseGeocode определяет город по координатам.
func (s *LocationService) ReverseGeocode(ctx context.Context, lat, lon float64) (model.Place, error) {
	if !geo.Valid(model.Coordinates{Latitude: lat, Longitude: lon}) {
		return model.Place{}, geo.ErrInvalidCoordinate
	}
	return s.geocoder.Reverse(ctx, lat, lon)
}
