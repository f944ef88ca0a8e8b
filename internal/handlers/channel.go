package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateChannelRequest はチャンネル作成リクエストのボディ
type CreateChannelRequest struct {
	Cname string `json:"cname"`
}

// createChannel は POST /channels
func (h *Handler) createChannel(c *gin.Context) {
	var req CreateChannelRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.channels.Create(c.Request.Context(), req.Cname); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "ok"})
}

// listChannels は GET /channels
func (h *Handler) listChannels(c *gin.Context) {
	names, err := h.channels.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": names})
}

// reset は POST /reset
func (h *Handler) reset(c *gin.Context) {
	if err := h.channels.Reset(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"result": "ok"})
}
