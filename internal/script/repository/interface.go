package repository

import (
	"context"

	"github.com/chattersim/chattersim/internal/script/models"
)

// Repository defines the interface for script queue storage operations.
// Items are kept in authoring order; List returns them in that order.
type Repository interface {
	CreateItem(ctx context.Context, item *models.QueueItem) error
	GetItem(ctx context.Context, id string) (*models.QueueItem, error)
	UpdateItem(ctx context.Context, item *models.QueueItem) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context) ([]*models.QueueItem, error)
	ReplaceItems(ctx context.Context, items []*models.QueueItem) error
	ClearItems(ctx context.Context) error
	Close() error
}
