package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chattersim/chattersim/internal/common/errors"
	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/script/importer"
	"github.com/chattersim/chattersim/internal/script/models"
	"github.com/chattersim/chattersim/internal/script/service"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// maxImportSize caps uploaded script files at 1 MiB
const maxImportSize = 1 << 20

// Handler contains HTTP handlers for the script API
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  log,
	}
}

// CreateItem appends a new item to the script queue
// POST /api/v1/script/items
func (h *Handler) CreateItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), toServiceRequest(&req))
	if err != nil {
		h.logger.Error("failed to create script item", zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusCreated, itemToResponse(item))
}

// GetItem retrieves a queue item by ID
// GET /api/v1/script/items/:itemId
func (h *Handler) GetItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		appErr := errors.BadRequest("itemId is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		appErr := errors.NotFound("script item", itemID)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, itemToResponse(item))
}

// UpdateItem replaces an existing queue item, keeping its position
// PUT /api/v1/script/items/:itemId
func (h *Handler) UpdateItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		appErr := errors.BadRequest("itemId is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), itemID, toServiceRequest(&req))
	if err != nil {
		h.logger.Error("failed to update script item", zap.String("item_id", itemID), zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, itemToResponse(item))
}

// DeleteItem removes a queue item
// DELETE /api/v1/script/items/:itemId
func (h *Handler) DeleteItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		appErr := errors.BadRequest("itemId is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if err := h.service.DeleteItem(c.Request.Context(), itemID); err != nil {
		h.logger.Error("failed to delete script item", zap.String("item_id", itemID), zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListItems returns the queue in authoring order
// GET /api/v1/script/items
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list script items", zap.Error(err))
		appErr := errors.InternalError("failed to list script items", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	resp := ItemsListResponse{
		Items: make([]*ItemResponse, len(items)),
		Total: len(items),
	}
	for i, item := range items {
		resp.Items[i] = itemToResponse(item)
	}

	c.JSON(http.StatusOK, resp)
}

// ReplaceItems swaps the entire queue atomically
// PUT /api/v1/script/items
func (h *Handler) ReplaceItems(c *gin.Context) {
	var req ReplaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	items := make([]*models.QueueItem, len(req.Items))
	for i := range req.Items {
		items[i] = toQueueItem(&req.Items[i])
	}

	if err := h.service.Replace(c.Request.Context(), items); err != nil {
		h.logger.Error("failed to replace script", zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	h.ListItems(c)
}

// ClearItems removes every queue item
// DELETE /api/v1/script/items
func (h *Handler) ClearItems(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context()); err != nil {
		h.logger.Error("failed to clear script", zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportItems parses an uploaded CSV script and replaces the queue with it.
// By default the import is all-or-nothing: any row error rejects the file.
// With ?partial=true the valid rows are imported and the row errors are
// reported alongside.
// POST /api/v1/script/import
func (h *Handler) ImportItems(c *gin.Context) {
	partial, _ := strconv.ParseBool(c.Query("partial"))

	result, err := importer.Parse(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
	if err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if !result.Accepted() && !partial {
		appErr := errors.Validation("script file has invalid rows", map[string]interface{}{
			"errors": result.Errors,
		})
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	if err := h.service.Replace(c.Request.Context(), result.Items); err != nil {
		h.logger.Error("failed to import script", zap.Error(err))
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	h.logger.Info("script imported",
		zap.Int("imported", len(result.Items)),
		zap.Int("rejected", len(result.Errors)))

	c.JSON(http.StatusOK, ImportResponse{
		Imported: len(result.Items),
		Skipped:  len(result.Errors),
		Errors:   result.Errors,
	})
}

func toServiceRequest(req *ItemRequest) *service.ItemRequest {
	return &service.ItemRequest{
		Sender:          v1.Sender(req.Sender),
		Kind:            v1.Kind(req.Kind),
		Content:         req.Content,
		DelayAfterMs:    req.DelayAfterMs,
		AudioDurationMs: req.AudioDurationMs,
		VideoDurationMs: req.VideoDurationMs,
	}
}

func toQueueItem(req *ItemRequest) *models.QueueItem {
	return &models.QueueItem{
		Sender:          v1.Sender(req.Sender),
		Kind:            v1.Kind(req.Kind),
		Content:         req.Content,
		DelayAfterMs:    req.DelayAfterMs,
		AudioDurationMs: req.AudioDurationMs,
		VideoDurationMs: req.VideoDurationMs,
	}
}

func itemToResponse(item *models.QueueItem) *ItemResponse {
	return &ItemResponse{
		ID:              item.ID,
		Sender:          string(item.Sender),
		Kind:            string(item.Kind),
		Content:         item.Content,
		DelayAfterMs:    item.DelayAfterMs,
		AudioDurationMs: item.AudioDurationMs,
		VideoDurationMs: item.VideoDurationMs,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}
