package model

import (
	"fmt"
	"strconv"
)

// LegKey адресует перегон маршрута: неотрицательное значение - входящий перегон
// города с этим порядковым индексом, отрицательные - перегоны от дома и домой.
type LegKey int

const (
	HomeDeparture LegKey = -1
	HomeReturn    LegKey = -2
)

// CityLeg возвращает ключ входящего перегона города с индексом i.
func CityLeg(i int) LegKey {
	return LegKey(i)
}

// CityIndex возвращает индекс города, если ключ адресует межгородской перегон.
func (k LegKey) CityIndex() (int, bool) {
	if k < 0 {
		return 0, false
	}
	return int(k), true
}

// IsHome сообщает, относится ли ключ к перегону от дома или домой.
func (k LegKey) IsHome() bool {
	return k == HomeDeparture || k == HomeReturn
}

func (k LegKey) String() string {
	switch k {
	case HomeDeparture:
		return "home-out"
	case HomeReturn:
		return "home-back"
	default:
		return strconv.Itoa(int(k))
	}
}

// ParseLegKey разбирает строковое представление ключа (см. String).
func ParseLegKey(s string) (LegKey, error) {
	switch s {
	case "home-out":
		return HomeDeparture, nil
	case "home-back":
		return HomeReturn, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("некорректный ключ перегона %q", s)
	}
	return CityLeg(i), nil
}

// Leg - направленный перегон между двумя точками маршрута.
// DistanceKm равен nil, если у одной из точек нет координат.
type Leg struct {
	Key           LegKey          `json:"key"`
	From          Point           `json:"from"`
	To            Point           `json:"to"`
	DistanceKm    *float64        `json:"distance_km"`
	TransportMode TransportMode   `json:"transport_mode"`
	Suggestions   []TransportMode `json:"suggestions"`
	Overridden    bool            `json:"overridden"`
	IsHomeLeg     bool            `json:"is_home_leg"`
}
