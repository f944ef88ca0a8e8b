package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasukuchiba/channel_chat/internal/auth"
	"github.com/tasukuchiba/channel_chat/internal/chat"
	"github.com/tasukuchiba/channel_chat/internal/storage"
	"github.com/tasukuchiba/channel_chat/internal/websocket"
)

// Handler はチャンネルとメッセージのHTTPリクエストを処理する
type Handler struct {
	channels *chat.ChannelService
	messages *chat.MessageService
	resolver *auth.Resolver
	hub      *websocket.Hub
	log      *slog.Logger
}

// NewHandler は新しいHandlerを作成する。hub が nil ならストリームは提供しない
func NewHandler(channels *chat.ChannelService, messages *chat.MessageService, resolver *auth.Resolver, hub *websocket.Hub, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if resolver == nil {
		resolver = auth.NewResolver(nil, log)
	}
	return &Handler{
		channels: channels,
		messages: messages,
		resolver: resolver,
		hub:      hub,
		log:      log,
	}
}

// Router はルーティングを設定したgin.Engineを返す
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(h.log), gin.Recovery(), identity(h.resolver))

	r.POST("/channels", h.createChannel)
	r.GET("/channels", h.listChannels)
	r.POST("/channels/:cname/messages", h.createMessage)
	r.GET("/channels/:cname/messages", h.listMessages)
	r.POST("/reset", h.reset)

	// WebSocketエンドポイント
	if h.hub != nil {
		r.GET("/channels/:cname/stream", h.streamMessages)
	}

	// ヘルスチェック用エンドポイント
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}

// fail はエラーをステータスコードに変換して返す
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrInvalidPath) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindJSON はボディをデコードする。空のボディは {} として扱う
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
