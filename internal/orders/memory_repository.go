package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type storedOrder struct {
	Order
	seq int
}

type memoryRepository struct {
	mu     sync.RWMutex
	orders map[string]storedOrder
	seq    int
}

// NewMemoryRepository constructs an in-memory repository for tests and
// database-less development runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{orders: make(map[string]storedOrder)}
}

func (r *memoryRepository) Insert(_ context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[o.ID]; exists {
		return errors.New("order exists")
	}
	r.seq++
	r.orders[o.ID] = storedOrder{Order: o, seq: r.seq}
	return nil
}

func (r *memoryRepository) MarkFailed(_ context.Context, id string) (Order, error) {
	return r.transition(id, func(o *Order) { o.Status = StatusFailed })
}

func (r *memoryRepository) MarkCompleted(_ context.Context, id, fulfillmentID string) (Order, error) {
	return r.transition(id, func(o *Order) {
		o.Status = StatusCompleted
		o.FulfillmentID = fulfillmentID
	})
}

func (r *memoryRepository) transition(id string, apply func(*Order)) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if stored.Status != StatusPending {
		return Order{}, ErrNotPending
	}
	apply(&stored.Order)
	stored.UpdatedAt = time.Now().UTC()
	r.orders[id] = stored
	return stored.Order, nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return stored.Order, nil
}

func (r *memoryRepository) ListByClient(_ context.Context, clientID string) ([]Order, error) {
	r.mu.RLock()
	matched := make([]storedOrder, 0)
	for _, o := range r.orders {
		if o.ClientID == clientID {
			matched = append(matched, o)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].seq > matched[j].seq
	})
	out := make([]Order, len(matched))
	for i, o := range matched {
		out[i] = o.Order
	}
	return out, nil
}
