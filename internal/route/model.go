// Package route хранит упорядоченный список городов поездки и выводит из него перегоны.
package route

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
	"tripplanner/internal/transport"
)

var (
	ErrDuplicateCity   = errors.New("город с таким идентификатором уже есть в маршруте")
	ErrIndexOutOfRange = errors.New("индекс города вне диапазона")
	ErrNoSuchLeg       = errors.New("такого перегона нет в маршруте")
	ErrUnknownMode     = errors.New("неизвестный способ передвижения")
	ErrInvalidDates    = errors.New("дата окончания раньше даты начала")
)

// Model - упорядоченный набор городов маршрута.
// Инвариант: значения OrderIndex городов равны ровно {0..N-1}.
type Model struct {
	engine    *transport.Engine
	cities    []model.City
	homeModes map[model.LegKey]model.TransportMode
}

// New создает пустой маршрут. Если engine равен nil, используются правила по умолчанию.
func New(engine *transport.Engine) *Model {
	if engine == nil {
		engine = transport.DefaultEngine()
	}
	return &Model{
		engine:    engine,
		homeModes: make(map[model.LegKey]model.TransportMode),
	}
}

// FromCities создает маршрут из уже существующих городов (режим редактирования).
// Города упорядочиваются по OrderIndex и переиндексируются без пропусков.
func FromCities(engine *transport.Engine, cities []model.City) (*Model, error) {
	m := New(engine)
	sorted := make([]model.City, len(cities))
	copy(sorted, cities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })
	for _, c := range sorted {
		if _, err := m.AddCity(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Len возвращает количество городов.
func (m *Model) Len() int {
	return len(m.cities)
}

// City возвращает копию города с порядковым индексом i.
func (m *Model) City(i int) (model.City, bool) {
	if i < 0 || i >= len(m.cities) {
		return model.City{}, false
	}
	return cloneCity(m.cities[i]), true
}

// AddCity добавляет город в конец маршрута с OrderIndex = текущая длина.
// Пустой ID заменяется новым UUID. У первого города нет входящего межгородского
// перегона, поэтому его выбор способа передвижения отбрасывается.
func (m *Model) AddCity(c model.City) (model.City, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for _, existing := range m.cities {
		if existing.ID == c.ID {
			return model.City{}, ErrDuplicateCity
		}
	}
	c = cloneCity(c)
	c.OrderIndex = len(m.cities)
	if c.OrderIndex == 0 {
		c.TransportMode = nil
	}
	m.cities = append(m.cities, c)
	return cloneCity(c), nil
}

// RemoveCity удаляет город по индексу и переиндексирует оставшиеся.
// Для индекса вне диапазона ничего не делает и возвращает false.
func (m *Model) RemoveCity(index int) bool {
	if index < 0 || index >= len(m.cities) {
		return false
	}
	m.cities = append(m.cities[:index], m.cities[index+1:]...)
	m.reindex()
	return true
}

// MoveCity переносит город с позиции from на позицию to, сохраняя порядок остальных.
func (m *Model) MoveCity(from, to int) error {
	if from < 0 || from >= len(m.cities) || to < 0 || to >= len(m.cities) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	c := m.cities[from]
	m.cities = append(m.cities[:from], m.cities[from+1:]...)
	m.cities = append(m.cities[:to], append([]model.City{c}, m.cities[to:]...)...)
	m.reindex()
	return nil
}

// SetCityDates задает даты пребывания в городе. nil очищает дату.
func (m *Model) SetCityDates(index int, start, end *time.Time) error {
	if index < 0 || index >= len(m.cities) {
		return ErrIndexOutOfRange
	}
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDates
	}
	m.cities[index].StartDate = cloneTime(start)
	m.cities[index].EndDate = cloneTime(end)
	return nil
}

// Ordered возвращает копии городов, отсортированные по OrderIndex.
// Это единственный источник порядка для вывода перегонов.
func (m *Model) Ordered() []model.City {
	out := make([]model.City, len(m.cities))
	for i, c := range m.cities {
		out[i] = cloneCity(c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

// OptimizeOrder переупорядочивает города жадным алгоритмом ближайшего соседа.
// Первым становится город, ближайший к start (или текущий первый, если start равен nil).
// Города без координат сохраняют относительный порядок и уходят в конец.
// Выбранные пользователем способы передвижения остаются за своими городами.
func (m *Model) OptimizeOrder(start *model.Coordinates) {
	ordered := m.Ordered()
	var located, unlocated []model.City
	for _, c := range ordered {
		if c.Coords != nil && geo.Valid(*c.Coords) {
			located = append(located, c)
		} else {
			unlocated = append(unlocated, c)
		}
	}
	if len(located) < 2 && start == nil {
		return
	}

	optimized := make([]model.City, 0, len(ordered))
	used := make([]bool, len(located))
	cursor := start
	if cursor == nil && len(located) > 0 {
		optimized = append(optimized, located[0])
		used[0] = true
		cursor = located[0].Coords
	}
	for len(optimized) < len(located) {
		minDist := math.MaxFloat64
		minIndex := -1
		for j, c := range located {
			if used[j] {
				continue
			}
			d := geo.Between(cursor, c.Coords)
			if d != nil && *d < minDist {
				minDist = *d
				minIndex = j
			}
		}
		if minIndex < 0 {
			break
		}
		used[minIndex] = true
		optimized = append(optimized, located[minIndex])
		cursor = located[minIndex].Coords
	}
	optimized = append(optimized, unlocated...)
	m.cities = optimized
	m.reindex()
}

// reindex восстанавливает OrderIndex после перестановок. Город, ставший первым,
// теряет выбор для перегона, которого больше нет.
func (m *Model) reindex() {
	for i := range m.cities {
		m.cities[i].OrderIndex = i
	}
	if len(m.cities) > 0 {
		m.cities[0].TransportMode = nil
	}
}

func cloneCity(c model.City) model.City {
	if c.Coords != nil {
		coords := *c.Coords
		c.Coords = &coords
	}
	if c.TransportMode != nil {
		mode := *c.TransportMode
		c.TransportMode = &mode
	}
	c.StartDate = cloneTime(c.StartDate)
	c.EndDate = cloneTime(c.EndDate)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
