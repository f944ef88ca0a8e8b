package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasukuchiba/channel_chat/internal/auth"
)

// requestLogger はリクエストごとにメソッド・パス・ステータスを記録する。
// クエリにはトークンが含まれるため記録しない
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// identity は auth_token クエリからユーザーを決定してコンテキストに付与する。
// 検証に失敗しても匿名ユーザーとして処理を続ける
func identity(resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := resolver.Resolve(ctx, c.Query("auth_token"))
		c.Request = c.Request.WithContext(auth.WithUser(ctx, user))
		c.Next()
	}
}
