package transport

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tripplanner/internal/model"
)

// Bucket - диапазон расстояний [предыдущая граница, BelowKm) и ранжирование способов для него.
type Bucket struct {
	BelowKm float64
	Modes   []model.TransportMode
}

// Rules - таблица ранжирования способов передвижения по корзинам расстояний.
type Rules struct {
	Buckets []Bucket
	// Beyond применяется к расстояниям не меньше последней границы.
	Beyond []model.TransportMode
	// Unknown применяется, когда расстояние неизвестно.
	Unknown []model.TransportMode
	// CrossBorderMinKm - минимальное расстояние, начиная с которого для перегонов
	// между разными странами самолет поднимается на второе место.
	CrossBorderMinKm float64
}

type rawBucket struct {
	BelowKm float64  `yaml:"below_km"`
	Modes   []string `yaml:"modes"`
}

type rawRules struct {
	Buckets          []rawBucket `yaml:"buckets"`
	Beyond           []string    `yaml:"beyond"`
	Unknown          []string    `yaml:"unknown"`
	CrossBorderMinKm float64     `yaml:"cross_border_min_km"`
}

var errEmptyRules = errors.New("таблица правил пуста")

// DefaultRules возвращает правила по умолчанию:
// <2 км - пешком, <50 км - авто/автобус, <300 км - поезд/автобус, дальше - самолет.
func DefaultRules() Rules {
	return Rules{
		Buckets: []Bucket{
			{BelowKm: 2, Modes: modes("walk", "bike", "bus", "car", "train", "ferry", "flight")},
			{BelowKm: 50, Modes: modes("car", "bus", "bike", "train", "walk", "ferry", "flight")},
			{BelowKm: 300, Modes: modes("train", "bus", "car", "ferry", "flight", "bike", "walk")},
		},
		Beyond:           modes("flight", "train", "car", "bus", "ferry", "bike", "walk"),
		Unknown:          modes("car", "train", "bus", "flight", "ferry", "bike", "walk"),
		CrossBorderMinKm: 50,
	}
}

// LoadRules читает правила из YAML-файла.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("не удалось прочитать правила транспорта: %w", err)
	}
	return ParseRules(data)
}

// ParseRules разбирает YAML-описание правил. Отсутствующие разделы берутся из DefaultRules.
func ParseRules(data []byte) (Rules, error) {
	def := DefaultRules()
	raw := rawRules{CrossBorderMinKm: def.CrossBorderMinKm}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Rules{}, fmt.Errorf("некорректный YAML правил транспорта: %w", err)
	}

	rules := Rules{CrossBorderMinKm: raw.CrossBorderMinKm}
	var err error
	if len(raw.Buckets) == 0 {
		rules.Buckets = def.Buckets
	}
	for i, b := range raw.Buckets {
		parsed, perr := parseModes(b.Modes)
		if perr != nil {
			return Rules{}, fmt.Errorf("корзина %d: %w", i, perr)
		}
		rules.Buckets = append(rules.Buckets, Bucket{BelowKm: b.BelowKm, Modes: parsed})
	}
	if rules.Beyond, err = parseOrDefault(raw.Beyond, def.Beyond); err != nil {
		return Rules{}, fmt.Errorf("beyond: %w", err)
	}
	if rules.Unknown, err = parseOrDefault(raw.Unknown, def.Unknown); err != nil {
		return Rules{}, fmt.Errorf("unknown: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// Validate проверяет, что границы корзин строго возрастают, а каждый список
// является перестановкой закрытого набора способов передвижения.
func (r Rules) Validate() error {
	if len(r.Buckets) == 0 && len(r.Beyond) == 0 {
		return errEmptyRules
	}
	prev := 0.0
	for i, b := range r.Buckets {
		if b.BelowKm <= prev {
			return fmt.Errorf("корзина %d: граница %.2f км должна быть больше %.2f км", i, b.BelowKm, prev)
		}
		prev = b.BelowKm
		if err := checkPermutation(b.Modes); err != nil {
			return fmt.Errorf("корзина %d: %w", i, err)
		}
	}
	if err := checkPermutation(r.Beyond); err != nil {
		return fmt.Errorf("beyond: %w", err)
	}
	if err := checkPermutation(r.Unknown); err != nil {
		return fmt.Errorf("unknown: %w", err)
	}
	if r.CrossBorderMinKm < 0 {
		return fmt.Errorf("cross_border_min_km не может быть отрицательным")
	}
	return nil
}

func checkPermutation(list []model.TransportMode) error {
	all := model.AllTransportModes()
	if len(list) != len(all) {
		return fmt.Errorf("ожидается %d способов передвижения, получено %d", len(all), len(list))
	}
	seen := make(map[model.TransportMode]bool, len(list))
	for _, m := range list {
		if !m.Valid() {
			return fmt.Errorf("неизвестный способ передвижения %q", m)
		}
		if seen[m] {
			return fmt.Errorf("способ передвижения %q указан дважды", m)
		}
		seen[m] = true
	}
	return nil
}

func parseOrDefault(in []string, def []model.TransportMode) ([]model.TransportMode, error) {
	if len(in) == 0 {
		return def, nil
	}
	return parseModes(in)
}

func parseModes(in []string) ([]model.TransportMode, error) {
	out := make([]model.TransportMode, 0, len(in))
	for _, s := range in {
		m := model.ParseTransportMode(s)
		if m == model.TransportUnknown {
			return nil, fmt.Errorf("неизвестный способ передвижения %q", s)
		}
		out = append(out, m)
	}
	return out, nil
}

func modes(names ...string) []model.TransportMode {
	out := make([]model.TransportMode, len(names))
	for i, n := range names {
		out[i] = model.TransportMode(n)
	}
	return out
}
