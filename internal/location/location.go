// Package location содержит источники текущего местоположения пользователя.
package location

import (
	"context"
	"errors"
	"sync"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
)

var (
	ErrNoPosition    = errors.New("местоположение неизвестно")
	ErrPromptPending = errors.New("запрос местоположения уже отправлен")
)

// Static всегда разрешает доступ и возвращает заданную точку (например, HOME_LAT/HOME_LON).
type Static struct {
	pos model.Coordinates
}

// NewStatic создает источник с фиксированной позицией.
func NewStatic(lat, lon float64) (*Static, error) {
	pos := model.Coordinates{Latitude: lat, Longitude: lon}
	if !geo.Valid(pos) {
		return nil, geo.ErrInvalidCoordinate
	}
	return &Static{pos: pos}, nil
}

func (s *Static) RequestPermission(ctx context.Context) (bool, error) {
	return true, ctx.Err()
}

func (s *Static) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	return s.pos, ctx.Err()
}

// Denied - источник, в котором пользователь всегда отказывает в доступе.
type Denied struct{}

func (Denied) RequestPermission(ctx context.Context) (bool, error) {
	return false, nil
}

func (Denied) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	return model.Coordinates{}, ErrNoPosition
}

// Chat получает местоположение от пользователя чата: prompt отправляет просьбу
// поделиться геопозицией, а хост передает ответ через Grant или Deny.
type Chat struct {
	prompt func(ctx context.Context) error

	mu      sync.Mutex
	waiting chan answer
	pos     *model.Coordinates
}

type answer struct {
	pos     model.Coordinates
	granted bool
}

// NewChat создает источник, который спрашивает местоположение через prompt.
func NewChat(prompt func(ctx context.Context) error) *Chat {
	return &Chat{prompt: prompt}
}

// RequestPermission отправляет запрос и ждет ответа пользователя или отмены ctx.
func (c *Chat) RequestPermission(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.waiting != nil {
		c.mu.Unlock()
		return false, ErrPromptPending
	}
	ch := make(chan answer, 1)
	c.waiting = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.waiting == ch {
			c.waiting = nil
		}
		c.mu.Unlock()
	}()

	if c.prompt != nil {
		if err := c.prompt(ctx); err != nil {
			return false, err
		}
	}

	select {
	case a := <-ch:
		if !a.granted {
			return false, nil
		}
		c.mu.Lock()
		pos := a.pos
		c.pos = &pos
		c.mu.Unlock()
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// CurrentPosition возвращает позицию, присланную пользователем.
func (c *Chat) CurrentPosition(ctx context.Context) (model.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos == nil {
		return model.Coordinates{}, ErrNoPosition
	}
	return *c.pos, nil
}

// Waiting сообщает, ждет ли источник ответа пользователя.
func (c *Chat) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting != nil
}

// Grant передает присланную геопозицию. Возвращает false, если ответа никто не ждет.
func (c *Chat) Grant(pos model.Coordinates) bool {
	return c.deliver(answer{pos: pos, granted: true})
}

// Deny передает отказ пользователя. Возвращает false, если ответа никто не ждет.
func (c *Chat) Deny() bool {
	return c.deliver(answer{})
}

func (c *Chat) deliver(a answer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiting == nil {
		return false
	}
	select {
	case c.waiting <- a:
		return true
	default:
		return false
	}
}
