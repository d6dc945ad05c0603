// Package geo считает расстояния по дуге большого круга между точками маршрута.
package geo

import (
	"errors"
	"math"

	"tripplanner/internal/model"
)

// EarthRadiusKm - средний радиус Земли в километрах.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate возвращается для NaN, бесконечностей и значений вне диапазона.
var ErrInvalidCoordinate = errors.New("некорректные координаты")

// DistanceKm возвращает расстояние между двумя точками по формуле гаверсинусов.
func DistanceKm(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !validLat(lat1) || !validLat(lat2) || !validLon(lon1) || !validLon(lon2) {
		return 0, ErrInvalidCoordinate
	}
	if lat1 == lat2 && lon1 == lon2 {
		return 0, nil
	}

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// округление может дать a чуть больше 1 для почти антиподов
	a = math.Min(1, a)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c, nil
}

// Between возвращает расстояние между координатами или nil, если расстояние неизвестно.
func Between(a, b *model.Coordinates) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d, err := DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if err != nil {
		return nil
	}
	return &d
}

// Valid сообщает, можно ли использовать координаты для расчета расстояний.
func Valid(c model.Coordinates) bool {
	return validLat(c.Latitude) && validLon(c.Longitude)
}

func validLat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -90 && v <= 90
}

func validLon(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -180 && v <= 180
}

func toRadians(d float64) float64 {
	return d * math.Pi / 180
}
