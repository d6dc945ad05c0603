// Package transport ранжирует способы передвижения для перегона по расстоянию.
// Рекомендации носят совещательный характер: ни один способ не исключается,
// меняется только порядок предпочтения.
package transport

import (
	"strings"

	"tripplanner/internal/model"
)

// Engine ранжирует способы передвижения. Изменяемого состояния нет,
// поэтому один экземпляр можно разделять между сессиями.
type Engine struct {
	rules Rules
}

// NewEngine создает движок с проверенными правилами.
func NewEngine(rules Rules) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Engine{rules: rules}, nil
}

// DefaultEngine возвращает движок с правилами по умолчанию.
func DefaultEngine() *Engine {
	return &Engine{rules: DefaultRules()}
}

// LoadEngine создает движок из YAML-файла правил. Пустой путь означает правила по умолчанию.
func LoadEngine(path string) (*Engine, error) {
	if path == "" {
		return DefaultEngine(), nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules)
}

// Suggest возвращает все способы передвижения в порядке предпочтения для перегона.
// distanceKm равен nil, если расстояние неизвестно.
func (e *Engine) Suggest(distanceKm *float64, from, to model.Point) []model.TransportMode {
	base := e.rules.Unknown
	if distanceKm != nil {
		base = e.bucket(*distanceKm)
	}

	out := make([]model.TransportMode, len(base))
	copy(out, base)

	if distanceKm != nil && *distanceKm >= e.rules.CrossBorderMinKm && crossBorder(from, to) {
		out = promote(out, model.TransportFlight, 1)
	}
	return out
}

// Default возвращает способ передвижения по умолчанию (первый в ранжировании).
func (e *Engine) Default(distanceKm *float64, from, to model.Point) model.TransportMode {
	s := e.Suggest(distanceKm, from, to)
	if len(s) == 0 {
		return model.TransportCar
	}
	return s[0]
}

func (e *Engine) bucket(km float64) []model.TransportMode {
	for _, b := range e.rules.Buckets {
		if km < b.BelowKm {
			return b.Modes
		}
	}
	return e.rules.Beyond
}

func crossBorder(from, to model.Point) bool {
	if from.Country == "" || to.Country == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(from.Country), strings.TrimSpace(to.Country))
}

// promote перемещает mode на позицию pos, если он стоит дальше.
func promote(list []model.TransportMode, mode model.TransportMode, pos int) []model.TransportMode {
	idx := -1
	for i, m := range list {
		if m == mode {
			idx = i
			break
		}
	}
	if idx <= pos {
		return list
	}
	copy(list[pos+1:idx+1], list[pos:idx])
	list[pos] = mode
	return list
}
