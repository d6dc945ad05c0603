package wizard

import "sync"

// OverlayRegistry учитывает открытые мастера по ключу (например, по chat ID).
type OverlayRegistry struct {
	mu     sync.Mutex
	active map[int64]int
}

// NewOverlayRegistry создает пустой реестр.
func NewOverlayRegistry() *OverlayRegistry {
	return &OverlayRegistry{active: make(map[int64]int)}
}

// For возвращает Overlay для ключа.
func (r *OverlayRegistry) For(key int64) Overlay {
	return overlayHandle{registry: r, key: key}
}

// Active сообщает, открыт ли сейчас мастер для ключа.
func (r *OverlayRegistry) Active(key int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[key] > 0
}

type overlayHandle struct {
	registry *OverlayRegistry
	key      int64
}

func (h overlayHandle) Acquire() func() {
	r := h.registry
	r.mu.Lock()
	r.active[h.key]++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.active[h.key] <= 1 {
				delete(r.active, h.key)
				return
			}
			r.active[h.key]--
		})
	}
}
