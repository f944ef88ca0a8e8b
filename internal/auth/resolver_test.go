package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/channel_chat/internal/models"
)

type fakeVerifier struct {
	claims Claims
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	f.calls++
	return f.claims, f.err
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no token is anonymous without calling verifier", func(t *testing.T) {
		v := &fakeVerifier{}
		got := NewResolver(v, nil).Resolve(ctx, "")
		require.Equal(t, models.Anonymous, got)
		require.Zero(t, v.calls)
	})

	t.Run("verified token maps claims", func(t *testing.T) {
		v := &fakeVerifier{claims: Claims{Subject: "uid", Name: "Alice", Picture: "pic"}}
		got := NewResolver(v, nil).Resolve(ctx, "token")
		require.Equal(t, models.User{ID: "uid", Name: "Alice", AvatarURL: "pic"}, got)
	})

	t.Run("verification failure falls back to anonymous", func(t *testing.T) {
		v := &fakeVerifier{err: errors.New("expired")}
		got := NewResolver(v, nil).Resolve(ctx, "token")
		require.Equal(t, models.Anonymous, got)
		require.Equal(t, 1, v.calls)
	})

	t.Run("no verifier configured", func(t *testing.T) {
		got := NewResolver(nil, nil).Resolve(ctx, "token")
		require.Equal(t, models.Anonymous, got)
	})
}

func TestUserFromContext(t *testing.T) {
	require.Equal(t, models.Anonymous, UserFromContext(context.Background()))

	alice := models.User{ID: "uid", Name: "Alice"}
	require.Equal(t, alice, UserFromContext(WithUser(context.Background(), alice)))
}
