package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStorage()
	})
}

func TestMemoryStorage_GetReturnsCopy(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryStorage()
	req.NoError(store.Set(ctx, "channels/foo/messages/1", record{Body: "Hello"}))

	snap, err := store.Get(ctx, "channels/foo/messages")
	req.NoError(err)
	snap.Value.(map[string]any)["1"].(map[string]any)["body"] = "Modified"

	original, err := store.Get(ctx, "channels/foo/messages/1/body")
	req.NoError(err)
	req.Equal("Hello", original.Value, "Get should return a copy, not original data")
}

// TestMemoryStorage_ImplementsStore はMemoryStorageがStoreインターフェースを実装していることを確認する
func TestMemoryStorage_ImplementsStore(t *testing.T) {
	var _ Store = (*MemoryStorage)(nil)
}
