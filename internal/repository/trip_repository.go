package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripplanner/internal/model"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound возвращается, если запись не найдена.
var ErrNotFound = errors.New("запись не найдена")

const tripColumns = `id, owner_id, name, destination, start_date, end_date, budget, currency, created_at`

// TripRepository обеспечивает доступ к данным поездок в базе данных.
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository создает новый репозиторий для поездок.
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create создает новую поездку и возвращает сохраненную запись.
func (r *TripRepository) Create(ctx context.Context, in model.TripInput) (*model.Trip, error) {
	query := `INSERT INTO trips (owner_id, name, destination, start_date, end_date, budget, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + tripColumns
	var trip model.Trip
	err := r.db.GetContext(ctx, &trip, query,
		in.OwnerID, in.Name, in.Destination, in.StartDate, in.EndDate, in.Budget, in.Currency)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать поездку: %w", err)
	}
	return &trip, nil
}

// GetByID получает поездку по идентификатору (без городов).
func (r *TripRepository) GetByID(ctx context.Context, id int) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.GetContext(ctx, &trip, "SELECT "+tripColumns+" FROM trips WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("поездка %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении поездки: %w", err)
	}
	return &trip, nil
}

// ListByOwner возвращает поездки пользователя, начиная с последних.
func (r *TripRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Trip, error) {
	trips := []model.Trip{}
	err := r.db.SelectContext(ctx, &trips,
		"SELECT "+tripColumns+" FROM trips WHERE owner_id=$1 ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении списка поездок: %w", err)
	}
	return trips, nil
}
