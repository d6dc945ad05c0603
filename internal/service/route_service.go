package service

import (
	"tripplanner/internal/geo"
	"tripplanner/internal/model"
	"tripplanner/internal/route"
	"tripplanner/internal/transport"
)

// RoutePreview - рассчитанный маршрут без сохранения.
type RoutePreview struct {
	Cities          []model.City `json:"cities"`
	Legs            []model.Leg  `json:"legs"`
	TotalDistanceKm float64      `json:"total_distance_km"`
	UnknownLegs     int          `json:"unknown_legs"`
}

// RouteService строит перегоны и рекомендации по транспорту.
type RouteService struct {
	engine *transport.Engine
}

// NewRouteService создает сервис маршрутов.
func NewRouteService(engine *transport.Engine) *RouteService {
	if engine == nil {
		engine = transport.DefaultEngine()
	}
	return &RouteService{engine: engine}
}

// Preview упорядочивает города по OrderIndex (при optimize - по близости)
// и возвращает все перегоны, включая домашние, если home задан.
func (s *RouteService) Preview(cities []model.City, home *model.Coordinates, optimize bool) (*RoutePreview, error) {
	for _, c := range cities {
		if c.TransportMode != nil && !c.TransportMode.Valid() {
			return nil, ErrInvalidMode
		}
	}
	if home != nil && !geo.Valid(*home) {
		return nil, geo.ErrInvalidCoordinate
	}
	r, err := route.FromCities(s.engine, cities)
	if err != nil {
		return nil, err
	}
	if optimize {
		r.OptimizeOrder(home)
	}
	total, unknown := r.TotalDistanceKm(home)
	legs := r.AllLegs(home)
	if legs == nil {
		legs = []model.Leg{}
	}
	return &RoutePreview{
		Cities:          r.Ordered(),
		Legs:            legs,
		TotalDistanceKm: total,
		UnknownLegs:     unknown,
	}, nil
}

// Suggest возвращает упорядоченные способы передвижения для расстояния (nil - неизвестно).
func (s *RouteService) Suggest(distanceKm *float64, from, to model.Point) []model.TransportMode {
	return s.engine.Suggest(distanceKm, from, to)
}
