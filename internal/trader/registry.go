package trader

import "sync"

// Registry хранит трейдеров по идентификатору пользователя. Фабрика
// задаётся при создании, глобального состояния нет.
type Registry struct {
	mu      sync.Mutex
	factory func(userID int64) *Trader
	traders map[int64]*Trader
}

func NewRegistry(factory func(userID int64) *Trader) *Registry {
	return &Registry{
		factory: factory,
		traders: make(map[int64]*Trader),
	}
}

// Get возвращает трейдера пользователя, создавая его при первом
// обращении.
func (r *Registry) Get(userID int64) *Trader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.traders[userID]; ok {
		return t
	}
	t := r.factory(userID)
	r.traders[userID] = t
	return t
}

// Peek возвращает трейдера без создания.
func (r *Registry) Peek(userID int64) (*Trader, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.traders[userID]
	return t, ok
}

// StopAll останавливает всех запущенных трейдеров. Используется при
// завершении процесса.
func (r *Registry) StopAll() {
	r.mu.Lock()
	traders := make([]*Trader, 0, len(r.traders))
	for _, t := range r.traders {
		traders = append(traders, t)
	}
	r.mu.Unlock()

	for _, t := range traders {
		if t.IsRunning() {
			t.Stop()
		}
	}
}
