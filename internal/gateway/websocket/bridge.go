package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/events/bus"
	ws "github.com/chattersim/chattersim/pkg/ws"
)

// BridgeEvents subscribes the gateway to the event bus and forwards playback
// and script events to connected clients as notifications. The returned
// function drops the subscriptions.
func (g *Gateway) BridgeEvents(eventBus bus.EventBus) (func(), error) {
	var subs []bus.Subscription

	forward := func(subject string, translate func(*bus.Event) (*ws.Message, error)) error {
		sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
			msg, err := translate(event)
			if err != nil {
				return err
			}
			g.Hub.Broadcast(msg)
			return nil
		})
		if err != nil {
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	bridges := map[string]func(*bus.Event) (*ws.Message, error){
		events.SubjectPlaybackSnapshot: func(e *bus.Event) (*ws.Message, error) {
			return ws.NewNotification(ws.ActionPlaybackSnapshot, e.Data)
		},
		events.SubjectPlaybackEcho: func(e *bus.Event) (*ws.Message, error) {
			return ws.NewNotification(ws.ActionPlaybackEcho, e.Data)
		},
		events.SubjectPlaybackRun: func(e *bus.Event) (*ws.Message, error) {
			action := ws.ActionPlaybackRunEnded
			if e.Type == events.RunStarted {
				action = ws.ActionPlaybackRunStarted
			}
			payload := map[string]interface{}{
				"run_id": e.Data["run_id"],
				"reason": e.Type,
			}
			return ws.NewNotification(action, payload)
		},
		events.SubjectScript: func(e *bus.Event) (*ws.Message, error) {
			payload := map[string]interface{}{"change": e.Type}
			if itemID, ok := e.Data["item_id"]; ok {
				payload["item_id"] = itemID
			}
			return ws.NewNotification(ws.ActionScriptChanged, payload)
		},
	}

	for subject, translate := range bridges {
		if err := forward(subject, translate); err != nil {
			for _, sub := range subs {
				sub.Unsubscribe()
			}
			return nil, err
		}
	}

	g.logger.Info("event bridge attached", zap.Int("subjects", len(bridges)))

	return func() {
		for _, sub := range subs {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
	}, nil
}
