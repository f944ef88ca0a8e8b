package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type record struct {
	Body string `json:"body"`
	Date string `json:"date"`
}

func date(sec int) string {
	return fmt.Sprintf("2026-01-02T03:04:%02d.000Z", sec)
}

func keysOf(snaps []Snapshot) []string {
	return lo.Map(snaps, func(s Snapshot, _ int) string { return s.Key })
}

// runStoreContract は全てのStore実装が満たすべき振る舞いを検証する
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing path", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		snap, err := s.Get(ctx, "channels/nope")
		req.NoError(err)
		req.False(snap.Exists())
		req.Equal("nope", snap.Key)
		req.Empty(snap.Children())
	})

	t.Run("set then get", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		err := s.Set(ctx, "channels/foo", map[string]any{
			"messages": map[string]any{
				"1": record{Body: "a", Date: date(0)},
				"2": record{Body: "b", Date: date(1)},
			},
		})
		req.NoError(err)

		body, err := s.Get(ctx, "channels/foo/messages/2/body")
		req.NoError(err)
		req.Equal("b", body.Value)

		msg, err := s.Get(ctx, "channels/foo/messages/1")
		req.NoError(err)
		var r record
		req.NoError(msg.Decode(&r))
		req.Equal(record{Body: "a", Date: date(0)}, r)

		channels, err := s.Get(ctx, "channels")
		req.NoError(err)
		req.Equal([]string{"foo"}, keysOf(channels.Children()))
	})

	t.Run("set overwrites subtree", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.Set(ctx, "channels/foo/messages", map[string]any{"1": "x", "2": "y"}))
		req.NoError(s.Set(ctx, "channels/bar/messages", map[string]any{"1": "z"}))
		req.NoError(s.Set(ctx, "channels/foo/messages", map[string]any{"3": "w"}))

		snap, err := s.Get(ctx, "channels/foo/messages")
		req.NoError(err)
		req.Equal(map[string]any{"3": "w"}, snap.Value)

		other, err := s.Get(ctx, "channels/bar/messages/1")
		req.NoError(err)
		req.Equal("z", other.Value)
	})

	t.Run("set nil deletes and prunes", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.Set(ctx, "a/b", "leaf"))
		req.NoError(s.Set(ctx, "a/b", nil))

		snap, err := s.Get(ctx, "a")
		req.NoError(err)
		req.False(snap.Exists())
	})

	t.Run("set below leaf replaces leaf", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.Set(ctx, "a", "leaf"))
		req.NoError(s.Set(ctx, "a/b", 1))

		snap, err := s.Get(ctx, "a")
		req.NoError(err)
		req.Equal(map[string]any{"b": float64(1)}, snap.Value)
	})

	t.Run("root", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.Set(ctx, "", map[string]any{"x": "y", "n": true}))

		snap, err := s.Get(ctx, "")
		req.NoError(err)
		req.Equal(map[string]any{"x": "y", "n": true}, snap.Value)
	})

	t.Run("push keys follow creation order", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		var pushed []string
		for i := 0; i < 5; i++ {
			key, err := s.Push(ctx, "channels/foo/messages", record{Body: fmt.Sprint(i), Date: date(0)})
			req.NoError(err)
			if len(pushed) > 0 {
				req.Greater(key, pushed[len(pushed)-1])
			}
			pushed = append(pushed, key)
		}

		snap, err := s.Get(ctx, "channels/foo/messages")
		req.NoError(err)
		req.Equal(pushed, keysOf(snap.Children()))
	})

	t.Run("recent orders by field and keeps the last entries", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		for i := 0; i < 25; i++ {
			_, err := s.Push(ctx, "channels/foo/messages", record{Body: fmt.Sprint(i), Date: date(i)})
			req.NoError(err)
		}

		snaps, err := s.Recent(ctx, "channels/foo/messages", "date", 20)
		req.NoError(err)
		req.Len(snaps, 20)

		bodies := lo.Map(snaps, func(s Snapshot, _ int) string {
			var r record
			req.NoError(s.Decode(&r))
			return r.Body
		})
		req.Equal("24", bodies[0])
		req.Equal("5", bodies[19])
	})

	t.Run("recent orders by field value, ties by key", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.NoError(s.Set(ctx, "m", map[string]any{
			"a": record{Body: "a", Date: date(3)},
			"b": record{Body: "b", Date: date(1)},
			"c": record{Body: "c", Date: date(2)},
			"1": record{Body: "1", Date: date(2)},
		}))

		snaps, err := s.Recent(ctx, "m", "date", 0)
		req.NoError(err)
		req.Equal([]string{"a", "c", "1", "b"}, keysOf(snaps))
	})

	t.Run("recent on missing path", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		snaps, err := s.Recent(ctx, "channels/nope/messages", "date", 20)
		req.NoError(err)
		req.Empty(snaps)
	})

	t.Run("concurrent sets on one path all succeed", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		const writers = 20
		var g errgroup.Group
		for i := range writers {
			g.Go(func() error {
				return s.Set(ctx, "channels/foo", map[string]any{
					"messages": map[string]any{
						"1": record{Body: fmt.Sprint(i), Date: date(0)},
						"2": record{Body: fmt.Sprint(i), Date: date(1)},
					},
				})
			})
		}
		req.NoError(g.Wait())

		// 最後の書き込みだけが残り、混ざらない
		snap, err := s.Get(ctx, "channels/foo/messages")
		req.NoError(err)
		req.Equal([]string{"1", "2"}, keysOf(snap.Children()))
		var first, second record
		req.NoError(snap.Children()[0].Decode(&first))
		req.NoError(snap.Children()[1].Decode(&second))
		req.Equal(first.Body, second.Body)
	})

	t.Run("invalid paths", func(t *testing.T) {
		req := require.New(t)
		s := newStore(t)

		req.ErrorIs(s.Set(ctx, "channels/", "x"), ErrInvalidPath)
		req.ErrorIs(s.Set(ctx, "channels/x", map[string]any{"bad.key": 1}), ErrInvalidPath)

		_, err := s.Get(ctx, "a.b")
		req.ErrorIs(err, ErrInvalidPath)

		_, err = s.Push(ctx, "/channels", "x")
		req.ErrorIs(err, ErrInvalidPath)
	})
}
