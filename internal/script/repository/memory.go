package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chattersim/chattersim/internal/script/models"
)

// MemoryRepository provides in-memory script queue storage. The simulator
// deliberately has no durable store; a session's script lives and dies with
// the process.
type MemoryRepository struct {
	order []string
	items map[string]*models.QueueItem
	mu    sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory script repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items: make(map[string]*models.QueueItem),
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateItem appends a new item to the end of the queue
func (r *MemoryRepository) CreateItem(ctx context.Context, item *models.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("queue item already exists: %s", item.ID)
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return nil
}

// GetItem retrieves an item by ID
func (r *MemoryRepository) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("queue item not found: %s", id)
	}
	return item, nil
}

// UpdateItem updates an existing item in place, preserving its position
func (r *MemoryRepository) UpdateItem(ctx context.Context, item *models.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return fmt.Errorf("queue item not found: %s", item.ID)
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = item
	return nil
}

// DeleteItem removes an item by ID
func (r *MemoryRepository) DeleteItem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("queue item not found: %s", id)
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListItems returns all items in authoring order
func (r *MemoryRepository) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.QueueItem, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.items[id])
	}
	return result, nil
}

// ReplaceItems swaps the whole queue for the given items, in order
func (r *MemoryRepository) ReplaceItems(ctx context.Context, items []*models.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := make([]string, 0, len(items))
	byID := make(map[string]*models.QueueItem, len(items))
	now := time.Now().UTC()

	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, dup := byID[item.ID]; dup {
			return fmt.Errorf("duplicate queue item id: %s", item.ID)
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		byID[item.ID] = item
		order = append(order, item.ID)
	}

	r.items = byID
	r.order = order
	return nil
}

// ClearItems removes all items
func (r *MemoryRepository) ClearItems(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[string]*models.QueueItem)
	r.order = nil
	return nil
}
