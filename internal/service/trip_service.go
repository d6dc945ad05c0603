package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
	"tripplanner/internal/repository"
	"tripplanner/internal/route"
	"tripplanner/internal/transport"
)

var (
	ErrEmptyName        = errors.New("название не может быть пустым")
	ErrInvalidDates     = errors.New("дата окончания раньше даты начала")
	ErrNegativeBudget   = errors.New("бюджет не может быть отрицательным")
	ErrInvalidMode      = errors.New("неизвестный способ передвижения")
	ErrInvalidLocation  = errors.New("координаты должны быть заданы парой и в допустимом диапазоне")
	ErrInvalidOrderSlot = errors.New("порядковый номер города не может быть отрицательным")
)

// TripService содержит бизнес-логику, связанную с поездками и их городами.
type TripService struct {
	tripRepo *repository.TripRepository
	cityRepo *repository.CityRepository
	engine   *transport.Engine
}

// NewTripService создает новый сервис для работы с поездками.
func NewTripService(tripRepo *repository.TripRepository, cityRepo *repository.CityRepository, engine *transport.Engine) *TripService {
	if engine == nil {
		engine = transport.DefaultEngine()
	}
	return &TripService{tripRepo: tripRepo, cityRepo: cityRepo, engine: engine}
}

// CreateTrip создает новую поездку.
func (s *TripService) CreateTrip(ctx context.Context, in model.TripInput) (*model.Trip, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrEmptyName
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, ErrInvalidDates
	}
	if in.Budget.Valid && in.Budget.Decimal.IsNegative() {
		return nil, ErrNegativeBudget
	}
	if strings.TrimSpace(in.Destination) == "" {
		in.Destination = in.Name
	}
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	trip, err := s.tripRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	trip.Cities = []model.TripCity{}
	return trip, nil
}

// GetTrip возвращает поездку вместе с городами в порядке маршрута.
func (s *TripService) GetTrip(ctx context.Context, id int) (*model.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cities, err := s.cityRepo.ListByTrip(ctx, id)
	if err != nil {
		return nil, err
	}
	trip.Cities = cities
	return trip, nil
}

// ListTrips возвращает поездки пользователя без городов.
func (s *TripService) ListTrips(ctx context.Context, ownerID int64) ([]model.Trip, error) {
	return s.tripRepo.ListByOwner(ctx, ownerID)
}

// CreateCity добавляет город в поездку.
func (s *TripService) CreateCity(ctx context.Context, tripID int, in model.CityInput) (*model.TripCity, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrEmptyName
	}
	if in.OrderIndex < 0 {
		return nil, ErrInvalidOrderSlot
	}
	if in.TransportMode != model.TransportUnknown && !in.TransportMode.Valid() {
		return nil, ErrInvalidMode
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, ErrInvalidLocation
	}
	if in.Latitude != nil && !geo.Valid(model.Coordinates{Latitude: *in.Latitude, Longitude: *in.Longitude}) {
		return nil, ErrInvalidLocation
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, ErrInvalidDates
	}
	return s.cityRepo.Create(ctx, tripID, in)
}

// OptimizeTrip переупорядочивает города поездки по географической близости
// (жадный алгоритм ближайшего соседа от первого города) и сохраняет новый порядок
// вместе с рекомендованными способами передвижения для новых перегонов.
func (s *TripService) OptimizeTrip(ctx context.Context, tripID int) ([]model.TripCity, error) {
	cities, err := s.cityRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(cities) < 3 {
		return cities, nil // нечего оптимизировать
	}

	byID := make(map[string]model.TripCity, len(cities))
	routeCities := make([]model.City, 0, len(cities))
	for _, c := range cities {
		id := strconv.Itoa(c.ID)
		byID[id] = c
		routeCities = append(routeCities, model.City{ID: id, Name: c.Name, Coords: c.Coords(), OrderIndex: c.OrderIndex})
	}
	r, err := route.FromCities(s.engine, routeCities)
	if err != nil {
		return nil, err
	}
	r.OptimizeOrder(nil)

	ordered := r.Ordered()
	optimized := make([]model.TripCity, 0, len(ordered))
	positions := make([]repository.CityPosition, 0, len(ordered))
	for i, c := range ordered {
		tc := byID[c.ID]
		tc.OrderIndex = i
		// перегоны изменились, прежний выбор к ним не относится
		tc.TransportMode = r.ResolvedMode(i, nil)
		optimized = append(optimized, tc)
		positions = append(positions, repository.CityPosition{ID: tc.ID, TransportMode: tc.TransportMode})
	}
	if err := s.cityRepo.UpdateOrder(ctx, tripID, positions); err != nil {
		return nil, err
	}
	return optimized, nil
}
