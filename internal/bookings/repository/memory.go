package repository

import (
	"context"
	"sync"

	"courtbook/pkg/model"
)

type memoryRepository struct {
	mu       sync.RWMutex
	bookings []*model.Booking
	saves    int
}

// MemoryRepository keeps the saved collection in process. It is the default
// backend and the one used by tests.
type MemoryRepository interface {
	Repository
	Saves() int
}

func NewMemoryRepository(seed ...*model.Booking) MemoryRepository {
	return &memoryRepository{bookings: cloneAll(seed)}
}

func (r *memoryRepository) Load(_ context.Context) ([]*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.bookings), nil
}

func (r *memoryRepository) Save(_ context.Context, bookings []*model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = cloneAll(bookings)
	r.saves++
	return nil
}

func (r *memoryRepository) Ping(_ context.Context) error {
	return nil
}

// Saves reports how many times Save has been called.
func (r *memoryRepository) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}
