package model

// Coordinates - нормализованная пара широта/долгота (WGS-84, градусы).
// Все внутренние компоненты работают только с этой формой.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place представляет результат геокодирования: найденный город или точку на карте.
type Place struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates возвращает координаты места.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Point - конечная точка перегона: город маршрута или синтетическая точка "Дом".
type Point struct {
	CityID  string       `json:"city_id,omitempty"`
	Name    string       `json:"name"`
	Country string       `json:"country,omitempty"`
	Coords  *Coordinates `json:"coords,omitempty"`
	IsHome  bool         `json:"is_home,omitempty"`
}

// HomePoint создает точку "Дом" по текущему местоположению пользователя.
func HomePoint(home Coordinates) Point {
	return Point{Name: "Дом", Coords: &home, IsHome: true}
}
