package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripplanner/internal/model"
	"tripplanner/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var tripRowColumns = []string{"id", "owner_id", "name", "destination", "start_date", "end_date", "budget", "currency", "created_at"}

var cityRowColumns = []string{"id", "trip_id", "name", "country", "latitude", "longitude", "order_index", "transport_mode", "start_date", "end_date"}

func newTripService(t *testing.T) (*TripService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "postgres")
	return NewTripService(repository.NewTripRepository(sdb), repository.NewCityRepository(sdb), nil), mock
}

func TestCreateTripValidation(t *testing.T) {
	svc, mock := newTripService(t)
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	tests := []struct {
		name string
		in   model.TripInput
		want error
	}{
		{"empty name", model.TripInput{Name: "  "}, ErrEmptyName},
		{"reversed dates", model.TripInput{Name: "Trip", StartDate: &start, EndDate: &end}, ErrInvalidDates},
		{"negative budget", model.TripInput{Name: "Trip", Budget: decimal.NewNullDecimal(decimal.NewFromInt(-5))}, ErrNegativeBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateTrip(context.Background(), tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query may run for invalid input: %v", err)
	}
}

func TestCreateTripDefaultsDestination(t *testing.T) {
	svc, mock := newTripService(t)
	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(int64(1), "Альпы", "Альпы", nil, nil, nil, "CHF").
		WillReturnRows(sqlmock.NewRows(tripRowColumns).
			AddRow(3, 1, "Альпы", "Альпы", nil, nil, nil, "CHF", time.Now()))

	trip, err := svc.CreateTrip(context.Background(), model.TripInput{OwnerID: 1, Name: " Альпы ", Currency: "chf"})
	if err != nil {
		t.Fatalf("CreateTrip returned error: %v", err)
	}
	if trip.ID != 3 || trip.Cities == nil {
		t.Errorf("unexpected trip %+v", trip)
	}
}

func TestGetTripLoadsCities(t *testing.T) {
	svc, mock := newTripService(t)
	mock.ExpectQuery(`FROM trips WHERE id=\$1`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(tripRowColumns).AddRow(7, 1, "Trip", "Paris", nil, nil, nil, "", time.Now()))
	mock.ExpectQuery(`FROM trip_cities WHERE trip_id=\$1`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cityRowColumns).
			AddRow(1, 7, "Paris", nil, nil, nil, 0, "car", nil, nil).
			AddRow(2, 7, "Lyon", nil, nil, nil, 1, "flight", nil, nil))

	trip, err := svc.GetTrip(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetTrip returned error: %v", err)
	}
	if len(trip.Cities) != 2 || trip.Cities[1].Name != "Lyon" {
		t.Errorf("unexpected cities %+v", trip.Cities)
	}
}

func TestGetTripNotFound(t *testing.T) {
	svc, mock := newTripService(t)
	mock.ExpectQuery(`FROM trips WHERE id=\$1`).WithArgs(9).
		WillReturnRows(sqlmock.NewRows(tripRowColumns))
	if _, err := svc.GetTrip(context.Background(), 9); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCityValidation(t *testing.T) {
	svc, _ := newTripService(t)
	lat, badLat := 45.0, 123.0
	tests := []struct {
		name string
		in   model.CityInput
		want error
	}{
		{"empty name", model.CityInput{}, ErrEmptyName},
		{"negative order", model.CityInput{Name: "Lyon", OrderIndex: -1}, ErrInvalidOrderSlot},
		{"unknown mode", model.CityInput{Name: "Lyon", TransportMode: "teleport"}, ErrInvalidMode},
		{"half coordinates", model.CityInput{Name: "Lyon", Latitude: &lat}, ErrInvalidLocation},
		{"out of range", model.CityInput{Name: "Lyon", Latitude: &badLat, Longitude: &lat}, ErrInvalidLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateCity(context.Background(), 1, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOptimizeTrip(t *testing.T) {
	svc, mock := newTripService(t)
	mock.ExpectQuery(`FROM trip_cities WHERE trip_id=\$1`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cityRowColumns).
			AddRow(1, 7, "Paris", nil, 48.8566, 2.3522, 0, "", nil, nil).
			AddRow(2, 7, "Marseille", nil, 43.2965, 5.3698, 1, "ferry", nil, nil).
			AddRow(3, 7, "Lille", nil, 50.6292, 3.0573, 2, "", nil, nil).
			AddRow(4, 7, "Lyon", nil, 45.7640, 4.8357, 3, "", nil, nil))
	mock.ExpectBegin()
	// Paris→Lille ~204 км и Lyon→Marseille ~278 км - поезд, Lille→Lyon ~557 км - самолет.
	wantModes := []string{"car", "train", "flight", "train"}
	for idx, id := range []int{1, 3, 4, 2} {
		mock.ExpectExec(`UPDATE trip_cities SET order_index`).WithArgs(idx, wantModes[idx], 7, id).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	cities, err := svc.OptimizeTrip(context.Background(), 7)
	if err != nil {
		t.Fatalf("OptimizeTrip returned error: %v", err)
	}
	want := []string{"Paris", "Lille", "Lyon", "Marseille"}
	for i, c := range cities {
		if c.Name != want[i] || c.OrderIndex != i {
			t.Errorf("position %d: got %s (%d), want %s", i, c.Name, c.OrderIndex, want[i])
		}
		if string(c.TransportMode) != wantModes[i] {
			t.Errorf("position %d: mode %s, want %s", i, c.TransportMode, wantModes[i])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

type stubGeocoder struct {
	places []model.Place
	limit  int
	err    error
}

func (s *stubGeocoder) Search(ctx context.Context, query string, maxResults int) ([]model.Place, error) {
	s.limit = maxResults
	return s.places, s.err
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (model.Place, error) {
	return model.Place{Name: "Lyon", Latitude: lat, Longitude: lon}, s.err
}

func TestSearchCities(t *testing.T) {
	geocoder := &stubGeocoder{places: []model.Place{{Name: "Paris"}, {Name: "Paris, TX"}}}
	svc := NewLocationService(geocoder)

	places, err := svc.SearchCities(context.Background(), "Paris", 50)
	if err != nil || len(places) != 2 {
		t.Fatalf("unexpected result %v %v", places, err)
	}
	if geocoder.limit != MaxSearchResults {
		t.Errorf("limit must be clamped to %d, got %d", MaxSearchResults, geocoder.limit)
	}
	places, err = svc.SearchCities(context.Background(), "Paris", 1)
	if err != nil || len(places) != 1 {
		t.Errorf("expected one result, got %v %v", places, err)
	}
	if places, _ := svc.SearchCities(context.Background(), " ", 5); len(places) != 0 {
		t.Errorf("blank query must return no places, got %v", places)
	}
}

func TestReverseGeocodeValidates(t *testing.T) {
	svc := NewLocationService(&stubGeocoder{})
	if _, err := svc.ReverseGeocode(context.Background(), 0, 200); err == nil {
		t.Error("expected error for invalid longitude")
	}
	p, err := svc.ReverseGeocode(context.Background(), 45.76, 4.83)
	if err != nil || p.Name != "Lyon" {
		t.Errorf("unexpected place %+v %v", p, err)
	}
}

func TestRoutePreview(t *testing.T) {
	svc := NewRouteService(nil)
	cities := []model.City{
		{Name: "Lyon", Country: "France", Coords: &model.Coordinates{Latitude: 45.7640, Longitude: 4.8357}, OrderIndex: 1},
		{Name: "Paris", Country: "France", Coords: &model.Coordinates{Latitude: 48.8566, Longitude: 2.3522}, OrderIndex: 0},
		{Name: "Nowhere", OrderIndex: 2},
	}
	preview, err := svc.Preview(cities, nil, false)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if preview.Cities[0].Name != "Paris" || len(preview.Legs) != 2 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if preview.UnknownLegs != 1 || preview.TotalDistanceKm < 380 || preview.TotalDistanceKm > 400 {
		t.Errorf("unexpected totals %.1f km, %d unknown", preview.TotalDistanceKm, preview.UnknownLegs)
	}

	home := &model.Coordinates{Latitude: 48.85, Longitude: 2.35}
	preview, err = svc.Preview(cities, home, false)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if len(preview.Legs) != 4 || !preview.Legs[0].IsHomeLeg || !preview.Legs[3].IsHomeLeg {
		t.Errorf("home legs must wrap the route, got %d legs", len(preview.Legs))
	}
}

func TestRoutePreviewEmpty(t *testing.T) {
	preview, err := NewRouteService(nil).Preview(nil, nil, true)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if preview.Legs == nil || len(preview.Legs) != 0 {
		t.Errorf("expected empty legs slice, got %v", preview.Legs)
	}
}
