package wizard

import (
	"context"
	"fmt"

	"tripplanner/internal/model"
)

// SavePhase - этап сохранения, на котором произошла ошибка.
type SavePhase string

const (
	PhaseTrip  SavePhase = "trip"
	PhaseCity  SavePhase = "city"
	PhaseFetch SavePhase = "fetch"
)

// SaveError описывает сбой сохранения. Сохранение не атомарно: при ошибке на
// этапе городов поездка и уже созданные города остаются в хранилище.
type SaveError struct {
	Phase   SavePhase
	TripID  int
	Created int // сколько городов создано к моменту ошибки
	City    string
	Err     error
}

func (e *SaveError) Error() string {
	switch e.Phase {
	case PhaseTrip:
		return fmt.Sprintf("не удалось создать поездку: %v", e.Err)
	case PhaseCity:
		return fmt.Sprintf("не удалось сохранить город %q (поездка %d, сохранено городов: %d): %v",
			e.City, e.TripID, e.Created, e.Err)
	default:
		return fmt.Sprintf("поездка %d сохранена, но не удалось ее загрузить: %v", e.TripID, e.Err)
	}
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// saveProgress позволяет повторить сохранение с места сбоя, не создавая
// поездку и уже сохраненные города повторно.
type saveProgress struct {
	tripID  int
	created int
}

// Save сохраняет черновик: сначала поездку, затем последовательно города в порядке
// OrderIndex, после чего загружает итоговую поездку и завершает мастер.
// При ошибке мастер остается на шаге бюджета, ошибку можно повторить.
func (w *Wizard) Save(ctx context.Context) (*model.Trip, error) {
	w.mu.Lock()
	if err := w.checkOpenLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.step != StepBudget {
		w.mu.Unlock()
		return nil, ErrNotReady
	}
	w.saving = true
	draft := w.draft
	cities := w.route.Ordered()
	inputs := make([]model.CityInput, len(cities))
	for i, c := range cities {
		inputs[i] = cityInput(c, w.route.ResolvedMode(i, w.home))
	}
	var progress saveProgress
	resume := w.progress != nil
	if resume {
		progress = *w.progress
	}
	w.mu.Unlock()

	trip, err := w.persist(ctx, draft, cities, inputs, progress, resume)
	if err != nil {
		w.mu.Lock()
		w.saving = false
		w.lastErr = err
		w.mu.Unlock()
		return nil, err
	}

	w.mu.Lock()
	w.saving = false
	w.lastErr = nil
	w.progress = nil
	w.step = StepSaved
	w.mu.Unlock()

	w.finish()
	if w.opts.OnSave != nil {
		w.opts.OnSave(trip)
	}
	return trip, nil
}

func (w *Wizard) persist(ctx context.Context, draft model.TripDraft, cities []model.City,
	inputs []model.CityInput, progress saveProgress, resume bool) (*model.Trip, error) {
	if !resume {
		created, err := w.opts.Trips.CreateTrip(ctx, tripInput(w.opts.OwnerID, draft, cities))
		if err != nil {
			return nil, &SaveError{Phase: PhaseTrip, Err: err}
		}
		progress = saveProgress{tripID: created.ID}
		w.storeProgress(progress)
	}

	for i := progress.created; i < len(inputs); i++ {
		if _, err := w.opts.Cities.CreateCity(ctx, progress.tripID, inputs[i]); err != nil {
			return nil, &SaveError{Phase: PhaseCity, TripID: progress.tripID, Created: i, City: inputs[i].Name, Err: err}
		}
		progress.created = i + 1
		w.storeProgress(progress)
	}

	trip, err := w.opts.Trips.GetTrip(ctx, progress.tripID)
	if err != nil {
		return nil, &SaveError{Phase: PhaseFetch, TripID: progress.tripID, Created: progress.created, Err: err}
	}
	return trip, nil
}

func (w *Wizard) storeProgress(p saveProgress) {
	w.mu.Lock()
	w.progress = &p
	w.mu.Unlock()
}

func tripInput(ownerID int64, draft model.TripDraft, cities []model.City) model.TripInput {
	destination := draft.Name
	if len(cities) > 0 {
		destination = cities[0].Name
	}
	return model.TripInput{
		OwnerID:     ownerID,
		Name:        draft.Name,
		Destination: destination,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		Budget:      draft.Budget,
		Currency:    draft.Currency,
	}
}

func cityInput(c model.City, mode model.TransportMode) model.CityInput {
	in := model.CityInput{
		Name:          c.Name,
		Country:       c.Country,
		OrderIndex:    c.OrderIndex,
		TransportMode: mode,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
	}
	if c.Coords != nil {
		lat, lon := c.Coords.Latitude, c.Coords.Longitude
		in.Latitude = &lat
		in.Longitude = &lon
	}
	return in
}
