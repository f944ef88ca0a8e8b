package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStorage は JSON ツリーの葉を BadgerDB に保存するストア。
// 葉ごとに "/" + フルパス をキー、JSON エンコードした値を値とする
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage は BadgerDB を開いて新しいBadgerStorageを作成する
func NewBadgerStorage(opts badger.Options) (*BadgerStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

// DB は内部の BadgerDB を返す。デバッグ用の閲覧サーバーに渡す
func (s *BadgerStorage) DB() *badger.DB {
	return s.db
}

func nodeKey(path string) []byte {
	return []byte("/" + path)
}

// visitSubtree はパス以下の葉を順に fn に渡す。rel はパスからの相対パス
func visitSubtree(txn *badger.Txn, path string, fn func(rel string, item *badger.Item) error) error {
	prefix := nodeKey(path)
	if path != "" {
		item, err := txn.Get(prefix)
		switch {
		case err == nil:
			if err := fn("", item); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		prefix = append(prefix, '/')
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if err := fn(string(item.Key()[len(prefix):]), item); err != nil {
			return err
		}
	}
	return nil
}

// Get はパス以下のサブツリーを読み取る
func (s *BadgerStorage) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	leaves := map[string]any{}
	err = s.db.View(func(txn *badger.Txn) error {
		return visitSubtree(txn, path, func(rel string, item *badger.Item) error {
			return item.Value(func(val []byte) error {
				var v any
				if err := json.Unmarshal(val, &v); err != nil {
					return err
				}
				leaves[rel] = v
				return nil
			})
		})
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("badger view: %w", err)
	}
	return Snapshot{Key: lastSegment(segs), Value: unflatten(leaves)}, nil
}

// Set はサブツリーと祖先の葉を消してから新しい葉を書き込む
func (s *BadgerStorage) Set(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	leaves := map[string]any{}
	flatten("", v, leaves)

	write := func(txn *badger.Txn) error {
		var stale [][]byte
		err := visitSubtree(txn, path, func(_ string, item *badger.Item) error {
			stale = append(stale, item.KeyCopy(nil))
			return nil
		})
		if err != nil {
			return err
		}
		if path != "" {
			stale = append(stale, nodeKey(""))
			for _, a := range ancestors(segs) {
				stale = append(stale, nodeKey(a))
			}
		}
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}

		for rel, leaf := range leaves {
			data, err := json.Marshal(leaf)
			if err != nil {
				return err
			}
			if err := txn.Set(nodeKey(joinRel(path, rel)), data); err != nil {
				return err
			}
		}
		return nil
	}

	// 同じパスへの並行書き込みは競合するので、後から確定したものが勝つまで再試行する
	for {
		err = s.db.Update(write)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
	if err != nil {
		return fmt.Errorf("badger update: %w", err)
	}
	return nil
}

// Push は採番したキーで子ノードを追加する
func (s *BadgerStorage) Push(ctx context.Context, path string, value any) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, joinRel(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// Recent は子ノードを field の値で並べ、最後の limit 件を新しい順で返す
func (s *BadgerStorage) Recent(ctx context.Context, path, field string, limit int) ([]Snapshot, error) {
	snap, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return newestFirst(snap.Value, field, limit), nil
}

// Close は BadgerDB を閉じる
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}
