package websocket

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/playback/engine"
	"github.com/chattersim/chattersim/internal/script/service"
	ws "github.com/chattersim/chattersim/pkg/ws"
)

// Gateway represents the WebSocket gateway
type Gateway struct {
	Hub        *Hub
	Dispatcher *ws.Dispatcher
	Handler    *Handler
	logger     *logger.Logger
}

// NewGateway creates a WebSocket gateway wired to the playback engine and
// the script service.
func NewGateway(eng *engine.Engine, scripts *service.Service, log *logger.Logger) *Gateway {
	dispatcher := ws.NewDispatcher()
	hub := NewHub(dispatcher, log)
	handler := NewHandler(hub, log)

	registerHealthHandler(dispatcher)
	registerScriptHandlers(dispatcher, scripts)
	registerPlaybackHandlers(dispatcher, eng, scripts)

	return &Gateway{
		Hub:        hub,
		Dispatcher: dispatcher,
		Handler:    handler,
		logger:     log,
	}
}

// SetupRoutes adds the WebSocket routes to the Gin engine
func (g *Gateway) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", g.Handler.HandleConnection)
}

func registerHealthHandler(d *ws.Dispatcher) {
	d.RegisterFunc(ws.ActionHealthCheck, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"status":  "ok",
			"service": "chattersim",
		})
	})
}

func registerScriptHandlers(d *ws.Dispatcher, scripts *service.Service) {
	d.RegisterFunc(ws.ActionScriptList, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		items, err := scripts.ListItems(ctx)
		if err != nil {
			return nil, err
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"items": items,
			"total": len(items),
		})
	})
}

// MediaEndedRequest is the payload for playback.media_ended
type MediaEndedRequest struct {
	RunID     string `json:"run_id"`
	MessageID string `json:"message_id"`
}

func registerPlaybackHandlers(d *ws.Dispatcher, eng *engine.Engine, scripts *service.Service) {
	d.RegisterFunc(ws.ActionPlaybackStart, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		queue, err := scripts.QueueSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		run, err := eng.Start(queue)
		if err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, err.Error(), nil)
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"active": true,
			"run_id": run.ID,
		})
	})

	d.RegisterFunc(ws.ActionPlaybackStop, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"stopped": eng.Stop(),
		})
	})

	d.RegisterFunc(ws.ActionPlaybackStatus, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		return ws.NewResponse(msg.ID, msg.Action, eng.Status())
	})

	d.RegisterFunc(ws.ActionMediaEnded, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		var req MediaEndedRequest
		if err := msg.ParsePayload(&req); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if req.RunID == "" || req.MessageID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "run_id and message_id are required", nil)
		}
		eng.ResolveMedia(req.RunID, req.MessageID)
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"accepted": true,
		})
	})
}
