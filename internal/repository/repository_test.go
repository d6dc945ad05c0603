package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tripplanner/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var tripRowColumns = []string{"id", "owner_id", "name", "destination", "start_date", "end_date", "budget", "currency", "created_at"}

var cityRowColumns = []string{"id", "trip_id", "name", "country", "latitude", "longitude", "order_index", "transport_mode", "start_date", "end_date"}

func TestTripCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepository(db)
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	budget := decimal.NewNullDecimal(decimal.RequireFromString("1500.50"))

	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(int64(42), "Франция", "Paris", nil, nil, budget, "EUR").
		WillReturnRows(sqlmock.NewRows(tripRowColumns).
			AddRow(7, 42, "Франция", "Paris", nil, nil, "1500.50", "EUR", created))

	trip, err := repo.Create(context.Background(), model.TripInput{
		OwnerID: 42, Name: "Франция", Destination: "Paris", Budget: budget, Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if trip.ID != 7 || trip.Destination != "Paris" || !trip.CreatedAt.Equal(created) {
		t.Errorf("unexpected trip %+v", trip)
	}
	if !trip.Budget.Valid || !trip.Budget.Decimal.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("unexpected budget %v", trip.Budget)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTripCreateError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepository(db)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`INSERT INTO trips`).WillReturnError(boom)

	if _, err := repo.Create(context.Background(), model.TripInput{Name: "x"}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
}

func TestTripGetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id=\$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(tripRowColumns).
			AddRow(7, 42, "Франция", "Paris", nil, nil, nil, "", time.Now()))
	trip, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if trip.Budget.Valid {
		t.Error("NULL budget must stay invalid")
	}

	mock.ExpectQuery(`SELECT (.+) FROM trips WHERE id=\$1`).
		WithArgs(8).
		WillReturnError(sql.ErrNoRows)
	if _, err := repo.GetByID(context.Background(), 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTripListByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTripRepository(db)
	mock.ExpectQuery(`FROM trips WHERE owner_id=\$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(tripRowColumns).
			AddRow(2, 42, "B", "Lyon", nil, nil, nil, "", time.Now()).
			AddRow(1, 42, "A", "Paris", nil, nil, nil, "", time.Now()))

	trips, err := repo.ListByOwner(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListByOwner returned error: %v", err)
	}
	if len(trips) != 2 || trips[0].ID != 2 {
		t.Errorf("unexpected trips %+v", trips)
	}
}

func TestCityCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCityRepository(db)
	lat, lon := 48.8566, 2.3522
	country := "France"

	mock.ExpectQuery(`INSERT INTO trip_cities`).
		WithArgs(7, "Paris", &country, &lat, &lon, 0, "train", nil, nil).
		WillReturnRows(sqlmock.NewRows(cityRowColumns).
			AddRow(1, 7, "Paris", "France", lat, lon, 0, "train", nil, nil))

	city, err := repo.Create(context.Background(), 7, model.CityInput{
		Name: "Paris", Country: " France ", Latitude: &lat, Longitude: &lon, TransportMode: model.TransportTrain,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if city.TransportMode != model.TransportTrain || city.Country == nil || *city.Country != "France" {
		t.Errorf("unexpected city %+v", city)
	}
	if c := city.Coords(); c == nil || c.Latitude != lat {
		t.Errorf("unexpected coordinates %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCityListByTrip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCityRepository(db)
	mock.ExpectQuery(`FROM trip_cities WHERE trip_id=\$1 ORDER BY order_index`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(cityRowColumns).
			AddRow(1, 7, "Paris", nil, nil, nil, 0, "", nil, nil).
			AddRow(2, 7, "Lyon", nil, nil, nil, 1, "flight", nil, nil))

	cities, err := repo.ListByTrip(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByTrip returned error: %v", err)
	}
	if len(cities) != 2 || cities[0].Coords() != nil || cities[1].TransportMode != model.TransportFlight {
		t.Errorf("unexpected cities %+v", cities)
	}
}

func TestCityUpdateOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE trip_cities SET order_index=\$1, transport_mode=\$2`).WithArgs(0, "car", 7, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE trip_cities SET order_index=\$1, transport_mode=\$2`).WithArgs(1, "train", 7, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	positions := []CityPosition{{ID: 3, TransportMode: model.TransportCar}, {ID: 1, TransportMode: model.TransportTrain}}
	if err := repo.UpdateOrder(context.Background(), 7, positions); err != nil {
		t.Fatalf("UpdateOrder returned error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE trip_cities SET order_index`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()
	if err := repo.UpdateOrder(context.Background(), 7, positions[:1]); err == nil {
		t.Error("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
