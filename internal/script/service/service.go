// Package service implements the script composer operations: CRUD over the
// ordered message queue that playback runs consume.
package service

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/chattersim/chattersim/internal/common/errors"
	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/events/bus"
	"github.com/chattersim/chattersim/internal/script/models"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// Service coordinates script queue operations
type Service struct {
	repo     Repository
	eventBus bus.EventBus
	logger   *logger.Logger
}

// Repository is the storage dependency of the service
type Repository interface {
	CreateItem(ctx context.Context, item *models.QueueItem) error
	GetItem(ctx context.Context, id string) (*models.QueueItem, error)
	UpdateItem(ctx context.Context, item *models.QueueItem) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context) ([]*models.QueueItem, error)
	ReplaceItems(ctx context.Context, items []*models.QueueItem) error
	ClearItems(ctx context.Context) error
}

// NewService creates a new script service
func NewService(repo Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log.WithFields(zap.String("component", "script_service")),
	}
}

// ItemRequest carries the editable fields of a queue item
type ItemRequest struct {
	Sender          v1.Sender `json:"sender"`
	Kind            v1.Kind   `json:"kind"`
	Content         string    `json:"content"`
	DelayAfterMs    int       `json:"delay_after_ms"`
	AudioDurationMs int       `json:"audio_duration_ms"`
	VideoDurationMs int       `json:"video_duration_ms"`
}

func (r *ItemRequest) toItem(id string) *models.QueueItem {
	return &models.QueueItem{
		ID:              id,
		Sender:          r.Sender,
		Kind:            r.Kind,
		Content:         r.Content,
		DelayAfterMs:    r.DelayAfterMs,
		AudioDurationMs: r.AudioDurationMs,
		VideoDurationMs: r.VideoDurationMs,
	}
}

// CreateItem validates and appends a new queue item
func (s *Service) CreateItem(ctx context.Context, req *ItemRequest) (*models.QueueItem, error) {
	item := req.toItem("")
	if err := item.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ScriptItemCreated, item.ID)
	return item, nil
}

// GetItem retrieves a queue item by id
func (s *Service) GetItem(ctx context.Context, id string) (*models.QueueItem, error) {
	return s.repo.GetItem(ctx, id)
}

// UpdateItem validates and replaces an existing queue item, keeping its position
func (s *Service) UpdateItem(ctx context.Context, id string, req *ItemRequest) (*models.QueueItem, error) {
	item := req.toItem(id)
	if err := item.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, events.ScriptItemUpdated, item.ID)
	return item, nil
}

// DeleteItem removes a queue item
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.ScriptItemDeleted, id)
	return nil
}

// ListItems returns the queue in authoring order
func (s *Service) ListItems(ctx context.Context) ([]*models.QueueItem, error) {
	return s.repo.ListItems(ctx)
}

// Replace swaps the whole queue. All items must validate; on any failure the
// queue is left untouched.
func (s *Service) Replace(ctx context.Context, items []*models.QueueItem) error {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return apperrors.Validation(err.Error(), nil)
		}
	}
	if err := s.repo.ReplaceItems(ctx, items); err != nil {
		return err
	}
	s.logger.Info("script replaced", zap.Int("items", len(items)))
	s.publish(ctx, events.ScriptReplaced, "")
	return nil
}

// Clear removes every queue item
func (s *Service) Clear(ctx context.Context) error {
	if err := s.repo.ClearItems(ctx); err != nil {
		return err
	}
	s.publish(ctx, events.ScriptCleared, "")
	return nil
}

// QueueSnapshot returns cloned items for a playback run, so later edits
// cannot reach into an active run.
func (s *Service) QueueSnapshot(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make([]*models.QueueItem, len(items))
	for i, item := range items {
		snapshot[i] = item.Clone()
	}
	return snapshot, nil
}

func (s *Service) publish(ctx context.Context, eventType, itemID string) {
	if s.eventBus == nil {
		return
	}
	data := map[string]interface{}{}
	if itemID != "" {
		data["item_id"] = itemID
	}
	event := bus.NewEvent(eventType, "script-service", data)
	if err := s.eventBus.Publish(ctx, events.SubjectScript, event); err != nil {
		s.logger.Warn("failed to publish script event",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
