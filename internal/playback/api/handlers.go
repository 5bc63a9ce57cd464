// Package api exposes playback control over HTTP: starting and stopping
// runs, reading the live snapshot, and receiving media completion signals.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chattersim/chattersim/internal/common/errors"
	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/playback/engine"
	"github.com/chattersim/chattersim/internal/script/service"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
)

// Handler contains HTTP handlers for the playback API
type Handler struct {
	engine  *engine.Engine
	scripts *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new playback handler
func NewHandler(eng *engine.Engine, scripts *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		engine:  eng,
		scripts: scripts,
		logger:  log,
	}
}

// StartRun begins a playback run over the current script queue, superseding
// any active run
// POST /api/v1/playback/start
func (h *Handler) StartRun(c *gin.Context) {
	queue, err := h.scripts.QueueSnapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load script queue", zap.Error(err))
		appErr := errors.InternalError("failed to load script queue", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	run, err := h.engine.Start(queue)
	if err != nil {
		appErr := errors.Conflict(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusAccepted, v1.RunStatus{Active: true, RunID: run.ID})
}

// StopRun cancels the active run, if any
// POST /api/v1/playback/stop
func (h *Handler) StopRun(c *gin.Context) {
	stopped := h.engine.Stop()
	c.JSON(http.StatusOK, gin.H{"stopped": stopped})
}

// GetStatus reports whether a run is active
// GET /api/v1/playback/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

// GetSnapshot returns the conversation state of the most recent run
// GET /api/v1/playback/snapshot
func (h *Handler) GetSnapshot(c *gin.Context) {
	snapshot, ok := h.engine.Snapshot()
	if !ok {
		appErr := errors.NotFound("run", "current")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// MediaEnded receives a completion signal from the presentation layer for a
// playing audio or video message. Signals for superseded runs or unknown
// messages are accepted and discarded.
// POST /api/v1/playback/runs/:runId/messages/:messageId/ended
func (h *Handler) MediaEnded(c *gin.Context) {
	runID := c.Param("runId")
	messageID := c.Param("messageId")
	if runID == "" || messageID == "" {
		appErr := errors.BadRequest("runId and messageId are required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	h.engine.ResolveMedia(runID, messageID)
	c.Status(http.StatusNoContent)
}
