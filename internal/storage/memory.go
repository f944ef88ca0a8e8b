package storage

import (
	"context"
	"sync"
)

// MemoryStorage は JSON ツリーをメモリ上に保持するストア
type MemoryStorage struct {
	mu   sync.RWMutex
	root any
}

// NewMemoryStorage は新しいMemoryStorageを作成する
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Get はパス以下のサブツリーのコピーを返す
func (s *MemoryStorage) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Key: lastSegment(segs), Value: clone(getIn(s.root, segs))}, nil
}

// Set はパス以下のサブツリーを上書きする
func (s *MemoryStorage) Set(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = setIn(s.root, segs, v)
	return nil
}

// Push は採番したキーで子ノードを追加する
func (s *MemoryStorage) Push(ctx context.Context, path string, value any) (string, error) {
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
func (s *MemoryStorage) Recent(ctx context.Context, path, field string, limit int) ([]Snapshot, error) {
	snap, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return newestFirst(snap.Value, field, limit), nil
}

// Close は何もしない
func (s *MemoryStorage) Close() error {
	return nil
}

func lastSegment(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
