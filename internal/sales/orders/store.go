package orders

import (
	"sort"
	"sync"
)

// Store is the in-memory order list shown by the console. Reads return
// copies; mutations go through intent methods so a single owner decides
// what changes.
type Store struct {
	mu     sync.RWMutex
	orders []Order
	index  map[int64]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// Replace swaps the whole list, typically after a backend refetch.
func (s *Store) Replace(list []Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make([]Order, 0, len(list))
	s.index = make(map[int64]int, len(list))
	for _, o := range list {
		s.index[o.ID] = len(s.orders)
		s.orders = append(s.orders, o.Clone())
	}
}

// List returns a copy of every order, newest id first.
func (s *Store) List() []Order {
	s.mu.RLock()
	out := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// Get returns a copy of one order.
func (s *Store) Get(id int64) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Order{}, false
	}
	return s.orders[i].Clone(), true
}

// Upsert stores a refreshed copy of one order.
func (s *Store) Upsert(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[o.ID]; ok {
		s.orders[i] = o.Clone()
		return
	}
	s.index[o.ID] = len(s.orders)
	s.orders = append(s.orders, o.Clone())
}

// MarkCompleted patches the state of one order in place. No other entry is
// touched.
func (s *Store) MarkCompleted(id int64) error {
	return s.MarkState(id, StateCompleted)
}

// MarkState patches only the state of one order, keeping the rest of the
// list row as loaded.
func (s *Store) MarkState(id int64, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}
	s.orders[i].State = state
	return nil
}
