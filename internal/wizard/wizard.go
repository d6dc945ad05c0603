// Package wizard реализует пошаговый мастер создания поездки:
// детали → города → обзор маршрута → бюджет → сохранение.
package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tripplanner/internal/model"
	"tripplanner/internal/route"
	"tripplanner/internal/transport"
)

// Step - шаг мастера. Переходы линейные, без ветвлений.
type Step int

const (
	StepDetails Step = iota
	StepCities
	StepReview
	StepBudget
	// StepClosed и StepSaved - конечные состояния, мастер больше не принимает команды.
	StepClosed
	StepSaved
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepCities:
		return "cities"
	case StepReview:
		return "review"
	case StepBudget:
		return "budget"
	case StepClosed:
		return "closed"
	case StepSaved:
		return "saved"
	default:
		return "step(" + strconv.Itoa(int(s)) + ")"
	}
}

// Terminal сообщает, является ли шаг конечным.
func (s Step) Terminal() bool {
	return s == StepClosed || s == StepSaved
}

var (
	ErrCannotAdvance       = errors.New("нельзя перейти к следующему шагу")
	ErrClosed              = errors.New("мастер закрыт")
	ErrNotReady            = errors.New("сохранение доступно только на шаге бюджета")
	ErrSaveInProgress      = errors.New("сохранение уже выполняется")
	ErrSavePending         = errors.New("поездка сохранена частично, черновик можно только досохранить или закрыть")
	ErrInvalidBudget       = errors.New("бюджет не может быть отрицательным")
	ErrInvalidDates        = errors.New("дата окончания раньше даты начала")
	ErrMissingCollaborator = errors.New("не заданы API поездок и городов")
)

// DefaultSearchLimit - количество кандидатов, запрашиваемых у геокодера.
const DefaultSearchLimit = 5

// DefaultHomeTimeout ограничивает ожидание разрешения и позиции устройства.
const DefaultHomeTimeout = 2 * time.Minute

// Options - зависимости и обратные вызовы мастера.
type Options struct {
	// Existing - поездка для редактирования; черновик заполняется ее данными.
	Existing *model.Trip
	OwnerID  int64

	Engine   *transport.Engine
	Geocoder Geocoder
	Location LocationProvider
	Trips    TripAPI
	Cities   CityAPI
	Overlay  Overlay

	OnSave  func(*model.Trip)
	OnClose func()
	// OnHomeResolved вызывается, когда поиск домашней точки завершился
	// (в том числе после того, как шаг обзора уже показан).
	OnHomeResolved func(HomeStatus)

	SearchLimit int
	HomeTimeout time.Duration
}

// Wizard - сессия мастера. Сессия единолично владеет черновиком и маршрутом.
// Мьютекс нужен только потому, что поиск домашней точки завершается в отдельной горутине.
type Wizard struct {
	mu    sync.Mutex
	opts  Options
	step  Step
	draft model.TripDraft
	route *route.Model

	homeStatus HomeStatus
	home       *model.Coordinates
	lookup     *HomeLookup

	saving   bool
	progress *saveProgress
	lastErr  error

	ctx     context.Context
	cancel  context.CancelFunc
	release func()
}

// New открывает мастер. Overlay захватывается при открытии и освобождается
// на любом пути выхода, включая ошибку конструктора.
func New(opts Options) (w *Wizard, err error) {
	release := func() {}
	if opts.Overlay != nil {
		release = opts.Overlay.Acquire()
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	if opts.Trips == nil || opts.Cities == nil {
		return nil, ErrMissingCollaborator
	}
	if opts.Engine == nil {
		opts.Engine = transport.DefaultEngine()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.HomeTimeout <= 0 {
		opts.HomeTimeout = DefaultHomeTimeout
	}

	w = &Wizard{
		opts:    opts,
		step:    StepDetails,
		route:   route.New(opts.Engine),
		release: release,
	}
	if opts.Existing != nil {
		if err := w.loadExisting(opts.Existing); err != nil {
			return nil, err
		}
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w, nil
}

func (w *Wizard) loadExisting(t *model.Trip) error {
	w.draft = model.TripDraft{
		Name:      t.Name,
		StartDate: t.StartDate,
		EndDate:   t.EndDate,
		Budget:    t.Budget,
		Currency:  t.Currency,
	}
	cities := make([]model.City, 0, len(t.Cities))
	for _, tc := range t.Cities {
		c := model.City{
			ID:         "trip-city-" + strconv.Itoa(tc.ID),
			Name:       tc.Name,
			Coords:     tc.Coords(),
			OrderIndex: tc.OrderIndex,
			StartDate:  tc.StartDate,
			EndDate:    tc.EndDate,
		}
		if tc.Country != nil {
			c.Country = *tc.Country
		}
		if tc.TransportMode.Valid() {
			mode := tc.TransportMode
			c.TransportMode = &mode
		}
		cities = append(cities, c)
	}
	r, err := route.FromCities(w.opts.Engine, cities)
	if err != nil {
		return err
	}
	w.route = r
	return nil
}

// Step возвращает текущий шаг.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft возвращает копию черновика поездки.
func (w *Wizard) Draft() model.TripDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Cities возвращает города маршрута в порядке OrderIndex.
func (w *Wizard) Cities() []model.City {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.route.Ordered()
}

// Legs возвращает все перегоны с учетом домашней точки, известной на момент вызова.
func (w *Wizard) Legs() []model.Leg {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.route.AllLegs(w.home)
}

// TotalDistanceKm возвращает сумму известных расстояний и число перегонов без расстояния.
func (w *Wizard) TotalDistanceKm() (float64, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.route.TotalDistanceKm(w.home)
}

// Err возвращает ошибку последней попытки сохранения.
func (w *Wizard) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// CanAdvance проверяет условие перехода с шага s вперед.
func (w *Wizard) CanAdvance(s Step) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canAdvanceLocked(s)
}

func (w *Wizard) canAdvanceLocked(s Step) bool {
	switch s {
	case StepDetails:
		return strings.TrimSpace(w.draft.Name) != ""
	case StepCities:
		return w.route.Len() > 0
	case StepReview, StepBudget:
		return true
	default:
		return false
	}
}

// Next переходит к следующему шагу, если это разрешено.
// При входе в обзор маршрута запускается поиск домашней точки (не блокируя переход).
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	if w.step == StepBudget || !w.canAdvanceLocked(w.step) {
		return ErrCannotAdvance
	}
	w.step++
	if w.step == StepReview {
		w.startHomeLookupLocked()
	}
	return nil
}

// Back возвращает на предыдущий шаг. С первого шага мастер закрывается.
func (w *Wizard) Back() error {
	w.mu.Lock()
	if err := w.checkOpenLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.step == StepDetails {
		w.mu.Unlock()
		w.Close()
		return nil
	}
	w.step--
	w.mu.Unlock()
	return nil
}

// Close прерывает мастер: отменяет поиск домашней точки, освобождает overlay
// и вызывает OnClose. Повторные вызовы и вызов во время сохранения ничего не делают.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.step.Terminal() || w.saving {
		w.mu.Unlock()
		return
	}
	w.step = StepClosed
	w.mu.Unlock()

	w.finish()
	if w.opts.OnClose != nil {
		w.opts.OnClose()
	}
}

func (w *Wizard) finish() {
	w.cancel()
	w.release()
}

func (w *Wizard) checkOpenLocked() error {
	if w.step.Terminal() {
		return ErrClosed
	}
	if w.saving {
		return ErrSaveInProgress
	}
	return nil
}

// checkEditableLocked запрещает правки черновика после частичного сохранения:
// повтор продолжает с места сбоя и должен видеть те же данные.
func (w *Wizard) checkEditableLocked() error {
	if err := w.checkOpenLocked(); err != nil {
		return err
	}
	if w.progress != nil {
		return ErrSavePending
	}
	return nil
}

// SavePending сообщает, что поездка уже создана в хранилище, но сохранение не завершено.
func (w *Wizard) SavePending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress != nil
}

// SetName задает название поездки.
func (w *Wizard) SetName(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	w.draft.Name = name
	return nil
}

// SetDates задает даты поездки. nil очищает дату.
func (w *Wizard) SetDates(start, end *time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDates
	}
	w.draft.StartDate = start
	w.draft.EndDate = end
	return nil
}

// SetBudget задает бюджет. Невалидный NullDecimal очищает бюджет.
func (w *Wizard) SetBudget(budget decimal.NullDecimal, currency string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	if budget.Valid && budget.Decimal.IsNegative() {
		return ErrInvalidBudget
	}
	w.draft.Budget = budget
	w.draft.Currency = strings.ToUpper(strings.TrimSpace(currency))
	return nil
}

// AddCity добавляет город в конец маршрута.
func (w *Wizard) AddCity(c model.City) (model.City, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return model.City{}, err
	}
	return w.route.AddCity(c)
}

// RemoveCity удаляет город по индексу; для индекса вне диапазона ничего не делает.
func (w *Wizard) RemoveCity(index int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.checkEditableLocked() != nil {
		return false
	}
	return w.route.RemoveCity(index)
}

// MoveCity переносит город на другую позицию маршрута.
func (w *Wizard) MoveCity(from, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	return w.route.MoveCity(from, to)
}

// SetCityDates задает даты пребывания в городе.
func (w *Wizard) SetCityDates(index int, start, end *time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	return w.route.SetCityDates(index, start, end)
}

// SetTransportMode запоминает выбор пользователя для перегона.
func (w *Wizard) SetTransportMode(key model.LegKey, mode model.TransportMode) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	return w.route.SetTransportMode(key, mode)
}

// ClearTransportMode возвращает перегону рекомендацию по умолчанию.
func (w *Wizard) ClearTransportMode(key model.LegKey) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	return w.route.ClearTransportMode(key)
}

// OptimizeOrder упорядочивает города по близости, начиная от дома, если он известен.
func (w *Wizard) OptimizeOrder() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkEditableLocked(); err != nil {
		return err
	}
	w.route.OptimizeOrder(w.home)
	return nil
}
