package model

import "strings"

// TransportMode - способ передвижения на перегоне. Набор значений закрыт.
type TransportMode string

const (
	TransportUnknown TransportMode = ""
	TransportWalk    TransportMode = "walk"
	TransportBike    TransportMode = "bike"
	TransportCar     TransportMode = "car"
	TransportBus     TransportMode = "bus"
	TransportTrain   TransportMode = "train"
	TransportFerry   TransportMode = "ferry"
	TransportFlight  TransportMode = "flight"
)

var transportModes = []TransportMode{
	TransportWalk,
	TransportBike,
	TransportCar,
	TransportBus,
	TransportTrain,
	TransportFerry,
	TransportFlight,
}

var transportLabels = map[TransportMode]string{
	TransportWalk:   "Пешком",
	TransportBike:   "Велосипед",
	TransportCar:    "Автомобиль",
	TransportBus:    "Автобус",
	TransportTrain:  "Поезд",
	TransportFerry:  "Паром",
	TransportFlight: "Самолёт",
}

// AllTransportModes возвращает весь закрытый набор способов передвижения в каноническом порядке.
func AllTransportModes() []TransportMode {
	out := make([]TransportMode, len(transportModes))
	copy(out, transportModes)
	return out
}

// Valid сообщает, входит ли значение в закрытый набор.
func (m TransportMode) Valid() bool {
	_, ok := transportLabels[m]
	return ok
}

// Label возвращает человекочитаемое название способа передвижения.
func (m TransportMode) Label() string {
	if l, ok := transportLabels[m]; ok {
		return l
	}
	return "?"
}

// ParseTransportMode разбирает строку (включая распространенные синонимы).
// Для неизвестных значений возвращает TransportUnknown.
func ParseTransportMode(input string) TransportMode {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "walk", "walking", "foot":
		return TransportWalk
	case "bike", "biking", "bicycle", "cycling":
		return TransportBike
	case "car", "driving", "drive":
		return TransportCar
	case "bus", "coach":
		return TransportBus
	case "train", "rail":
		return TransportTrain
	case "ferry", "boat":
		return TransportFerry
	case "flight", "plane", "fly":
		return TransportFlight
	default:
		return TransportUnknown
	}
}
