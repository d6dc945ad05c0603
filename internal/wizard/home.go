package wizard

import (
	"context"
	"log"

	"tripplanner/internal/geo"
	"tripplanner/internal/model"
)

// HomeStatus - состояние поиска домашней точки в рамках сессии.
type HomeStatus int

const (
	HomeUnknown HomeStatus = iota
	HomePending
	HomeResolved
	HomeDenied
	HomeFailed
)

func (s HomeStatus) String() string {
	switch s {
	case HomePending:
		return "pending"
	case HomeResolved:
		return "resolved"
	case HomeDenied:
		return "denied"
	case HomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HomeLookup - дескриптор асинхронного поиска домашней точки.
type HomeLookup struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel прерывает поиск. Безопасно вызывать многократно.
func (h *HomeLookup) Cancel() {
	h.cancel()
}

// Done закрывается, когда поиск завершен (успешно, с отказом или отменен).
func (h *HomeLookup) Done() <-chan struct{} {
	return h.done
}

// Home возвращает состояние поиска и домашнюю точку, если она известна.
func (w *Wizard) Home() (HomeStatus, *model.Coordinates) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.home == nil {
		return w.homeStatus, nil
	}
	home := *w.home
	return w.homeStatus, &home
}

// HomeLookup возвращает дескриптор текущего поиска или nil, если поиск не запускался.
func (w *Wizard) HomeLookup() *HomeLookup {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lookup
}

// startHomeLookupLocked запускает поиск не более одного раза за сессию.
// Отказ в разрешении окончателен, после сбоя поиск повторяется при следующем входе в обзор.
func (w *Wizard) startHomeLookupLocked() {
	switch w.homeStatus {
	case HomePending, HomeResolved, HomeDenied:
		return
	}
	if w.opts.Location == nil {
		w.homeStatus = HomeDenied
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.HomeTimeout)
	lookup := &HomeLookup{cancel: cancel, done: make(chan struct{})}
	w.lookup = lookup
	w.homeStatus = HomePending

	go w.runHomeLookup(ctx, lookup)
}

func (w *Wizard) runHomeLookup(ctx context.Context, lookup *HomeLookup) {
	defer close(lookup.done)
	defer lookup.cancel()

	status, home := resolveHome(ctx, w.opts.Location)

	w.mu.Lock()
	if w.lookup != lookup || w.step.Terminal() {
		w.mu.Unlock()
		return
	}
	w.homeStatus = status
	w.home = home
	w.mu.Unlock()

	if w.opts.OnHomeResolved != nil {
		w.opts.OnHomeResolved(status)
	}
}

func resolveHome(ctx context.Context, provider LocationProvider) (HomeStatus, *model.Coordinates) {
	granted, err := provider.RequestPermission(ctx)
	if err != nil {
		log.Printf("Не удалось запросить разрешение на геолокацию: %v", err)
		return HomeFailed, nil
	}
	if !granted {
		return HomeDenied, nil
	}
	pos, err := provider.CurrentPosition(ctx)
	if err != nil {
		log.Printf("Не удалось получить текущую позицию: %v", err)
		return HomeFailed, nil
	}
	if !geo.Valid(pos) {
		log.Printf("Получены некорректные координаты дома: %+v", pos)
		return HomeFailed, nil
	}
	return HomeResolved, &pos
}
