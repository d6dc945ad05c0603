package repository

import (
	"context"
	"fmt"
	"strings"

	"tripplanner/internal/model"

	"github.com/jmoiron/sqlx"
)

const cityColumns = `id, trip_id, name, country, latitude, longitude, order_index, transport_mode, start_date, end_date`

// CityRepository обеспечивает доступ к городам поездок.
type CityRepository struct {
	db *sqlx.DB
}

// NewCityRepository создает новый репозиторий для городов поездки.
func NewCityRepository(db *sqlx.DB) *CityRepository {
	return &CityRepository{db: db}
}

// Create сохраняет город поездки.
func (r *CityRepository) Create(ctx context.Context, tripID int, in model.CityInput) (*model.TripCity, error) {
	query := `INSERT INTO trip_cities (trip_id, name, country, latitude, longitude, order_index, transport_mode, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING ` + cityColumns
	var country *string
	if c := strings.TrimSpace(in.Country); c != "" {
		country = &c
	}
	var city model.TripCity
	err := r.db.GetContext(ctx, &city, query,
		tripID, in.Name, country, in.Latitude, in.Longitude, in.OrderIndex, string(in.TransportMode), in.StartDate, in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка при добавлении города в поездку: %w", err)
	}
	return &city, nil
}

// ListByTrip возвращает города поездки в порядке маршрута.
func (r *CityRepository) ListByTrip(ctx context.Context, tripID int) ([]model.TripCity, error) {
	cities := []model.TripCity{}
	err := r.db.SelectContext(ctx, &cities,
		"SELECT "+cityColumns+" FROM trip_cities WHERE trip_id=$1 ORDER BY order_index, id", tripID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении городов поездки: %w", err)
	}
	return cities, nil
}

// CityPosition - новое место города в маршруте и способ передвижения на его входящем перегоне.
type CityPosition struct {
	ID            int
	TransportMode model.TransportMode
}

// UpdateOrder переписывает порядок городов поездки: positions[i] получает order_index = i.
// Вместе с порядком меняются перегоны, поэтому способ передвижения обновляется тоже.
func (r *CityRepository) UpdateOrder(ctx context.Context, tripID int, positions []CityPosition) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for idx, p := range positions {
		_, err := tx.ExecContext(ctx,
			"UPDATE trip_cities SET order_index=$1, transport_mode=$2 WHERE trip_id=$3 AND id=$4",
			idx, string(p.TransportMode), tripID, p.ID)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("не удалось обновить порядок маршрута: %w", err)
		}
	}
	return tx.Commit()
}
