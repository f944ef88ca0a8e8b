package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tasukuchiba/channel_chat/internal/models"
)

const (
	// 書き込み待機時間
	writeWait = 10 * time.Second

	// pongメッセージの待機時間
	pongWait = 60 * time.Second

	// ping送信間隔（pongWaitより短くする必要がある）
	pingPeriod = (pongWait * 9) / 10

	// 最大メッセージサイズ
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// オリジンの制限はしない
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Poster はクライアントから受け取った本文をチャンネルに投稿する
type Poster interface {
	Append(ctx context.Context, channel, body string, user models.User) (models.Message, error)
}

// Client は単一のWebSocket接続を表す
type Client struct {
	hub *Hub

	// WebSocket接続
	conn *websocket.Conn

	// 送信用バッファチャネル
	send chan []byte

	// 購読中のチャンネル
	channel string

	// 接続時に解決したユーザー
	user models.User

	// nil なら受信メッセージは無視する
	poster Poster
}

// NewClient は新しいClientを作成する
func NewClient(hub *Hub, conn *websocket.Conn, channel string, user models.User, poster Poster) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		channel: channel,
		user:    user,
		poster:  poster,
	}
}

// ReadPump はWebSocket接続からメッセージを読み取り、投稿として保存する
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", "channel", c.channel, "error", err)
			}
			break
		}

		var in IncomingMessage
		if err := json.Unmarshal(message, &in); err != nil {
			c.hub.log.Debug("failed to parse message", "channel", c.channel, "error", err)
			continue
		}

		// メッセージタイプが"message"の場合のみ処理
		if in.Type != "message" || c.poster == nil {
			continue
		}
		if _, err := c.poster.Append(ctx, c.channel, in.Body, c.user); err != nil {
			c.hub.log.Error("failed to post message", "channel", c.channel, "error", err)
		}
	}
}

// WritePump はWebSocket接続にメッセージを書き込む
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hubがチャネルをクローズした
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 1フレームに1メッセージ
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs はWebSocket接続をアップグレードしてクライアントをチャンネルに登録する
func ServeWs(hub *Hub, poster Poster, w http.ResponseWriter, r *http.Request, channel string, user models.User) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(hub, conn, channel, user, poster)
	if !hub.subscribe(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}

	// ハンドラーが戻るとリクエストのコンテキストはキャンセルされる
	ctx := context.WithoutCancel(r.Context())

	// goroutineで読み書きを並行実行
	go client.WritePump()
	go client.ReadPump(ctx)
}
