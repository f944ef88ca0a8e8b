package auth

import (
	"context"
	"log/slog"

	"github.com/tasukuchiba/channel_chat/internal/models"
)

// Resolver はリクエストのトークンからユーザーを決定する。
// 失敗しても匿名ユーザーにフォールバックし、エラーは返さない
type Resolver struct {
	verifier Verifier
	log      *slog.Logger
}

// NewResolver は新しいResolverを作成する。verifier が nil なら常に匿名
func NewResolver(verifier Verifier, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{verifier: verifier, log: log}
}

// Resolve はトークンに対応するユーザーを返す
func (r *Resolver) Resolve(ctx context.Context, token string) models.User {
	if token == "" || r.verifier == nil {
		return models.Anonymous
	}

	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		r.log.DebugContext(ctx, "token verification failed", "error", err)
		return models.Anonymous
	}

	return models.User{
		ID:        claims.Subject,
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}
}

type contextKey string

const userKey contextKey = "user"

// WithUser はユーザーをコンテキストに付与する
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext はコンテキストのユーザーを返す。無ければ匿名
func UserFromContext(ctx context.Context) models.User {
	if u, ok := ctx.Value(userKey).(models.User); ok {
		return u
	}
	return models.Anonymous
}
