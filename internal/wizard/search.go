package wizard

import (
	"context"
	"log"
	"strings"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
)

// SearchCities ищет кандидатов для добавления в маршрут.
// Ошибка геокодера не прерывает мастер: пользователь получает пустой список.
func (w *Wizard) SearchCities(ctx context.Context, query string) []model.Place {
	query = strings.TrimSpace(query)
	if query == "" || w.opts.Geocoder == nil {
		return nil
	}
	places, err := w.opts.Geocoder.Search(ctx, query, w.opts.SearchLimit)
	if err != nil {
		log.Printf("Ошибка поиска города %q: %v", query, err)
		return nil
	}
	if len(places) > w.opts.SearchLimit {
		places = places[:w.opts.SearchLimit]
	}
	return places
}

// AddPlace добавляет найденное место в конец маршрута.
func (w *Wizard) AddPlace(p model.Place) (model.City, error) {
	return w.AddCity(model.CityFromPlace(p))
}

// AddCityAt определяет город по координатам (нажатие на карту, присланная геопозиция)
// и добавляет его в маршрут. Если место определить не удалось, нажатие игнорируется.
func (w *Wizard) AddCityAt(ctx context.Context, lat, lon float64) (model.City, bool) {
	if !geo.Valid(model.Coordinates{Latitude: lat, Longitude: lon}) || w.opts.Geocoder == nil {
		return model.City{}, false
	}
	place, err := w.opts.Geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		log.Printf("Не удалось определить город по координатам %.5f, %.5f: %v", lat, lon, err)
		return model.City{}, false
	}
	if strings.TrimSpace(place.Name) == "" {
		return model.City{}, false
	}
	// Точка нажатия точнее центра населенного пункта из ответа геокодера.
	place.Latitude, place.Longitude = lat, lon
	city, err := w.AddPlace(place)
	if err != nil {
		log.Printf("Не удалось добавить город %q: %v", place.Name, err)
		return model.City{}, false
	}
	return city, true
}
