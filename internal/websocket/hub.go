package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/tasukuchiba/channel_chat/internal/models"
)

// ErrHubClosed は停止済みのHubに配信しようとした場合のエラー
var ErrHubClosed = errors.New("hub closed")

// Hub はチャンネルごとのWebSocketクライアントを管理し、新着メッセージを配信する
type Hub struct {
	// チャンネル名ごとの接続中クライアント
	clients map[string]map[*Client]bool

	// ブロードキャスト用チャネル
	broadcast chan envelope

	// クライアント登録用チャネル
	register chan *Client

	// クライアント登録解除用チャネル
	unregister chan *Client

	// Run の終了で閉じられる
	done chan struct{}

	mu    sync.Mutex
	total int

	log *slog.Logger
}

type envelope struct {
	channel string
	data    []byte
}

// IncomingMessage はクライアントから受信するメッセージの形式
type IncomingMessage struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

// OutgoingMessage はクライアントへ送信するメッセージの形式
type OutgoingMessage struct {
	Type    string         `json:"type"`
	Channel string         `json:"channel"`
	Message models.Message `json:"message"`
}

// NewHub は新しいHubを作成する
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run はHubのメインループを開始する。ctx がキャンセルされると全クライアントを切断して戻る
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			h.setTotal(0)
			return nil

		case client := <-h.register:
			set, ok := h.clients[client.channel]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.channel] = set
			}
			set[client] = true
			n := h.addTotal(1)
			h.log.Debug("client registered", "channel", client.channel, "user", client.user.ID, "total", n)

		case client := <-h.unregister:
			if h.remove(client) {
				h.log.Debug("client unregistered", "channel", client.channel, "user", client.user.ID, "total", h.ClientCount())
			}

		case e := <-h.broadcast:
			for client := range h.clients[e.channel] {
				select {
				case client.send <- e.data:
				default:
					h.remove(client)
					h.log.Warn("dropping slow client", "channel", client.channel, "user", client.user.ID)
				}
			}
		}
	}
}

// remove はクライアントを外して送信チャネルを閉じる。Run のゴルーチンからのみ呼ぶ
func (h *Hub) remove(client *Client) bool {
	set := h.clients[client.channel]
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.channel)
	}
	close(client.send)
	h.addTotal(-1)
	return true
}

// Publish はメッセージをチャンネルの購読者全員に配信する
func (h *Hub) Publish(ctx context.Context, channel string, msg models.Message) error {
	data, err := json.Marshal(OutgoingMessage{
		Type:    "message",
		Channel: channel,
		Message: msg,
	})
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- envelope{channel: channel, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) subscribe(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount は接続中のクライアント数を返す
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

func (h *Hub) addTotal(delta int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total += delta
	return h.total
}

func (h *Hub) setTotal(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total = n
}
