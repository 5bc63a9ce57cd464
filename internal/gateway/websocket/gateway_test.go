package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chattersim/chattersim/internal/common/logger"
	"github.com/chattersim/chattersim/internal/events"
	"github.com/chattersim/chattersim/internal/events/bus"
	"github.com/chattersim/chattersim/internal/playback/engine"
	"github.com/chattersim/chattersim/internal/script/models"
	"github.com/chattersim/chattersim/internal/script/repository"
	"github.com/chattersim/chattersim/internal/script/service"
	v1 "github.com/chattersim/chattersim/pkg/api/v1"
	ws "github.com/chattersim/chattersim/pkg/ws"
)

func testTiming() engine.Timing {
	t := time.Millisecond
	return engine.Timing{
		SettleDelay:           t,
		KeypadDelay:           t,
		TypingInterval:        t,
		SendHesitation:        t,
		MediaSelectDelay:      t,
		DeliveredDelay:        t,
		FriendTyping:          t,
		FriendViewing:         t,
		ReadingWordsPerMinute: 60000,
		MinReading:            t,
		DefaultMeAudio:        t,
		DefaultFriendAudio:    t,
		DefaultFriendVideo:    t,
	}
}

type testGateway struct {
	gateway *Gateway
	repo    *repository.MemoryRepository
	bus     *bus.MemoryEventBus
	server  *httptest.Server
	conn    *gorillaws.Conn
}

func setupGateway(t *testing.T) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	memBus := bus.NewMemoryEventBus(log)
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, memBus, log)
	eng := engine.New(testTiming(), memBus, log)

	gateway := NewGateway(eng, svc, log)
	detach, err := gateway.BridgeEvents(memBus)
	require.NoError(t, err)
	t.Cleanup(detach)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gateway.Hub.Run(ctx)

	router := gin.New()
	gateway.SetupRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testGateway{gateway: gateway, repo: repo, bus: memBus, server: server, conn: conn}
}

func (tg *testGateway) send(t *testing.T, id, action string, payload interface{}) {
	t.Helper()
	msg, err := ws.NewRequest(id, action, payload)
	require.NoError(t, err)
	require.NoError(t, tg.conn.WriteJSON(msg))
}

// recv reads messages until one matches the predicate, skipping interleaved
// notifications.
func (tg *testGateway) recv(t *testing.T, match func(*ws.Message) bool) *ws.Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, tg.conn.SetReadDeadline(deadline))
		var msg ws.Message
		require.NoError(t, tg.conn.ReadJSON(&msg))
		if match(&msg) {
			return &msg
		}
	}
}

func responseTo(id string) func(*ws.Message) bool {
	return func(m *ws.Message) bool {
		return m.ID == id && m.Type != ws.MessageTypeNotification
	}
}

func notification(action string) func(*ws.Message) bool {
	return func(m *ws.Message) bool {
		return m.Type == ws.MessageTypeNotification && m.Action == action
	}
}

func TestGateway_HealthCheck(t *testing.T) {
	tg := setupGateway(t)

	tg.send(t, "req-1", ws.ActionHealthCheck, nil)
	msg := tg.recv(t, responseTo("req-1"))

	assert.Equal(t, ws.MessageTypeResponse, msg.Type)
	var payload map[string]string
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "chattersim", payload["service"])
}

func TestGateway_UnknownAction(t *testing.T) {
	tg := setupGateway(t)

	tg.send(t, "req-1", "bogus.action", nil)
	msg := tg.recv(t, responseTo("req-1"))

	assert.Equal(t, ws.MessageTypeError, msg.Type)
	var payload ws.ErrorPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, ws.ErrorCodeUnknownAction, payload.Code)
}

func TestGateway_ScriptList(t *testing.T) {
	tg := setupGateway(t)
	require.NoError(t, tg.repo.CreateItem(context.Background(), &models.QueueItem{
		Sender: v1.SenderMe, Kind: v1.KindText, Content: "hello",
	}))

	tg.send(t, "req-1", ws.ActionScriptList, nil)
	msg := tg.recv(t, responseTo("req-1"))

	var payload struct {
		Items []*models.QueueItem `json:"items"`
		Total int                 `json:"total"`
	}
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, 1, payload.Total)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "hello", payload.Items[0].Content)
}

func TestGateway_PlaybackStartEmptyQueue(t *testing.T) {
	tg := setupGateway(t)

	tg.send(t, "req-1", ws.ActionPlaybackStart, nil)
	msg := tg.recv(t, responseTo("req-1"))

	assert.Equal(t, ws.MessageTypeError, msg.Type)
}

func TestGateway_PlaybackRoundTrip(t *testing.T) {
	tg := setupGateway(t)
	require.NoError(t, tg.repo.CreateItem(context.Background(), &models.QueueItem{
		Sender: v1.SenderFriend, Kind: v1.KindText, Content: "hi there",
	}))

	tg.send(t, "req-1", ws.ActionPlaybackStart, nil)
	msg := tg.recv(t, responseTo("req-1"))
	require.Equal(t, ws.MessageTypeResponse, msg.Type)

	var started struct {
		Active bool   `json:"active"`
		RunID  string `json:"run_id"`
	}
	require.NoError(t, msg.ParsePayload(&started))
	assert.True(t, started.Active)
	require.NotEmpty(t, started.RunID)

	// Snapshot notifications stream in while the run plays
	snap := tg.recv(t, notification(ws.ActionPlaybackSnapshot))
	var snapPayload struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, snap.ParsePayload(&snapPayload))
	assert.Equal(t, started.RunID, snapPayload.RunID)

	ended := tg.recv(t, notification(ws.ActionPlaybackRunEnded))
	var endPayload struct {
		RunID  string `json:"run_id"`
		Reason string `json:"reason"`
	}
	require.NoError(t, ended.ParsePayload(&endPayload))
	assert.Equal(t, started.RunID, endPayload.RunID)
	assert.Equal(t, events.RunFinished, endPayload.Reason)
}

func TestGateway_MediaEndedResolvesWait(t *testing.T) {
	tg := setupGateway(t)
	require.NoError(t, tg.repo.CreateItem(context.Background(), &models.QueueItem{
		Sender: v1.SenderFriend, Kind: v1.KindAudio, Content: "voice.mp3",
	}))

	tg.send(t, "req-1", ws.ActionPlaybackStart, nil)
	msg := tg.recv(t, responseTo("req-1"))
	require.Equal(t, ws.MessageTypeResponse, msg.Type)
	var started struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, msg.ParsePayload(&started))

	// Wait for the snapshot where the audio message is playing
	var messageID string
	tg.recv(t, func(m *ws.Message) bool {
		if m.Type != ws.MessageTypeNotification || m.Action != ws.ActionPlaybackSnapshot {
			return false
		}
		var payload struct {
			Snapshot v1.Snapshot `json:"snapshot"`
		}
		if err := json.Unmarshal(m.Payload, &payload); err != nil {
			return false
		}
		for _, message := range payload.Snapshot.Messages {
			if message.IsPlayingAudio {
				messageID = message.ID
				return true
			}
		}
		return false
	})

	tg.send(t, "req-2", ws.ActionMediaEnded, MediaEndedRequest{
		RunID:     started.RunID,
		MessageID: messageID,
	})
	resp := tg.recv(t, responseTo("req-2"))
	assert.Equal(t, ws.MessageTypeResponse, resp.Type)

	tg.recv(t, notification(ws.ActionPlaybackRunEnded))
}

func TestGateway_ScriptChangeNotification(t *testing.T) {
	tg := setupGateway(t)

	// A direct service mutation publishes to the bus, which the bridge
	// forwards to connected clients
	log, _ := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	svc := service.NewService(tg.repo, tg.bus, log)
	_, err := svc.CreateItem(context.Background(), &service.ItemRequest{
		Sender: v1.SenderMe, Kind: v1.KindText, Content: "new line",
	})
	require.NoError(t, err)

	msg := tg.recv(t, notification(ws.ActionScriptChanged))
	var payload struct {
		Change string `json:"change"`
	}
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, events.ScriptItemCreated, payload.Change)
}
