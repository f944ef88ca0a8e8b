package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/channel_chat/internal/auth"
	"github.com/tasukuchiba/channel_chat/internal/chat"
	"github.com/tasukuchiba/channel_chat/internal/storage"
	"github.com/tasukuchiba/channel_chat/internal/websocket"
)

func TestStreamMessages(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	t.Cleanup(cancel)

	store := storage.NewMemoryStorage()
	h := NewHandler(
		chat.NewChannelService(store),
		chat.NewMessageService(store, chat.WithPublisher(hub)),
		auth.NewResolver(nil, log),
		hub,
		log,
	)
	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/channels/foo/stream"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	t.Cleanup(func() { conn.Close() })
	req.Eventually(func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(server.URL+"/channels/foo/messages", "application/json", strings.NewReader(`{"body":"live"}`))
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusCreated, resp.StatusCode)

	var out websocket.OutgoingMessage
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	req.NoError(conn.ReadJSON(&out))
	req.Equal("foo", out.Channel)
	req.Equal("live", out.Message.Body)
	req.NotEmpty(out.Message.ID)

	// WebSocketからの投稿も保存される
	req.NoError(conn.WriteJSON(websocket.IncomingMessage{Type: "message", Body: "from socket"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	req.NoError(conn.ReadJSON(&out))
	req.Equal("from socket", out.Message.Body)

	got, err := h.messages.ListRecent(context.Background(), "foo")
	req.NoError(err)
	req.Len(got, 2)
}

func TestStreamMessages_InvalidChannel(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	store := storage.NewMemoryStorage()
	h := NewHandler(chat.NewChannelService(store), chat.NewMessageService(store), nil, websocket.NewHub(log), log)

	rec := do(t, h.Router(), http.MethodGet, "/channels/a.b/stream", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
