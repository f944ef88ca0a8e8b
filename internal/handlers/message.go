package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasukuchiba/channel_chat/internal/auth"
	"github.com/tasukuchiba/channel_chat/internal/storage"
	"github.com/tasukuchiba/channel_chat/internal/websocket"
)

// CreateMessageRequest はメッセージ作成リクエストのボディ
type CreateMessageRequest struct {
	Body string `json:"body"`
}

// createMessage は POST /channels/:cname/messages
func (h *Handler) createMessage(c *gin.Context) {
	var req CreateMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.messages.Append(ctx, c.Param("cname"), req.Body, auth.UserFromContext(ctx)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": "ok"})
}

// listMessages は GET /channels/:cname/messages
func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.messages.ListRecent(c.Request.Context(), c.Param("cname"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// streamMessages は GET /channels/:cname/stream をWebSocketにアップグレードする
func (h *Handler) streamMessages(c *gin.Context) {
	cname := c.Param("cname")
	if _, err := storage.Join(cname); err != nil {
		h.fail(c, err)
		return
	}
	websocket.ServeWs(h.hub, h.messages, c.Writer, c.Request, cname, auth.UserFromContext(c.Request.Context()))
}
