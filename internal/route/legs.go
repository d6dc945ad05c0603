package route

import (
	"tripplanner/internal/geo"
	"tripplanner/internal/model"
)

// Legs возвращает n-1 межгородских перегонов c[i] → c[i+1] в порядке OrderIndex.
// Способ передвижения берется из выбора пользователя, иначе - первый из рекомендаций.
func (m *Model) Legs() []model.Leg {
	ordered := m.Ordered()
	if len(ordered) < 2 {
		return nil
	}
	legs := make([]model.Leg, 0, len(ordered)-1)
	for i := 0; i < len(ordered)-1; i++ {
		from, to := ordered[i], ordered[i+1]
		leg := m.buildLeg(model.CityLeg(i+1), from.Point(), to.Point(), to.TransportMode)
		legs = append(legs, leg)
	}
	return legs
}

// HomeLegs возвращает перегоны "Дом → первый город" и "последний город → Дом".
// Если дом неизвестен или городов нет, перегонов нет.
func (m *Model) HomeLegs(home *model.Coordinates) []model.Leg {
	ordered := m.Ordered()
	if home == nil || len(ordered) == 0 {
		return nil
	}
	homePoint := model.HomePoint(*home)
	first, last := ordered[0], ordered[len(ordered)-1]

	out := m.buildLeg(model.HomeDeparture, homePoint, first.Point(), m.homeOverride(model.HomeDeparture))
	back := m.buildLeg(model.HomeReturn, last.Point(), homePoint, m.homeOverride(model.HomeReturn))
	out.IsHomeLeg = true
	back.IsHomeLeg = true
	return []model.Leg{out, back}
}

// AllLegs возвращает полный маршрут: от дома, межгородские перегоны, домой.
func (m *Model) AllLegs(home *model.Coordinates) []model.Leg {
	homeLegs := m.HomeLegs(home)
	inner := m.Legs()
	if len(homeLegs) == 0 {
		return inner
	}
	out := make([]model.Leg, 0, len(inner)+2)
	out = append(out, homeLegs[0])
	out = append(out, inner...)
	return append(out, homeLegs[1])
}

// SetTransportMode запоминает выбор пользователя для перегона.
// Выбор больше не пересчитывается при последующих изменениях маршрута.
func (m *Model) SetTransportMode(key model.LegKey, mode model.TransportMode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}
	if key.IsHome() {
		m.homeModes[key] = mode
		return nil
	}
	idx, ok := key.CityIndex()
	if !ok || idx < 1 || idx >= len(m.cities) {
		return ErrNoSuchLeg
	}
	m.cities[idx].TransportMode = &mode
	return nil
}

// ClearTransportMode сбрасывает выбор пользователя, возвращая рекомендацию по умолчанию.
func (m *Model) ClearTransportMode(key model.LegKey) error {
	if key.IsHome() {
		delete(m.homeModes, key)
		return nil
	}
	idx, ok := key.CityIndex()
	if !ok || idx < 1 || idx >= len(m.cities) {
		return ErrNoSuchLeg
	}
	m.cities[idx].TransportMode = nil
	return nil
}

// ResolvedMode возвращает итоговый способ передвижения на входящем перегоне города i:
// выбор пользователя или рекомендацию. Для первого города входящим считается перегон от дома
// (с его собственным выбором), а без дома - рекомендация для неизвестного расстояния.
func (m *Model) ResolvedMode(i int, home *model.Coordinates) model.TransportMode {
	ordered := m.Ordered()
	if i < 0 || i >= len(ordered) {
		return model.TransportUnknown
	}
	c := ordered[i]
	if i == 0 {
		if home != nil {
			return m.HomeLegs(home)[0].TransportMode
		}
		return m.engine.Default(nil, model.Point{}, c.Point())
	}
	if c.TransportMode != nil {
		return *c.TransportMode
	}
	prev := ordered[i-1]
	return m.engine.Default(geo.Between(prev.Coords, c.Coords), prev.Point(), c.Point())
}

// TotalDistanceKm суммирует известные расстояния всех перегонов и
// возвращает количество перегонов с неизвестным расстоянием.
func (m *Model) TotalDistanceKm(home *model.Coordinates) (total float64, unknown int) {
	for _, leg := range m.AllLegs(home) {
		if leg.DistanceKm == nil {
			unknown++
			continue
		}
		total += *leg.DistanceKm
	}
	return total, unknown
}

func (m *Model) homeOverride(key model.LegKey) *model.TransportMode {
	if mode, ok := m.homeModes[key]; ok {
		return &mode
	}
	return nil
}

func (m *Model) buildLeg(key model.LegKey, from, to model.Point, override *model.TransportMode) model.Leg {
	distance := geo.Between(from.Coords, to.Coords)
	suggestions := m.engine.Suggest(distance, from, to)
	leg := model.Leg{
		Key:         key,
		From:        from,
		To:          to,
		DistanceKm:  distance,
		Suggestions: suggestions,
	}
	if override != nil {
		leg.TransportMode = *override
		leg.Overridden = true
	} else if len(suggestions) > 0 {
		leg.TransportMode = suggestions[0]
	}
	return leg
}
