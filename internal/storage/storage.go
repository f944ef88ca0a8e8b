//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=../mocks/mock_store.go -package=mocks
package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidPath はパスまたはオブジェクトのキーが不正な場合のエラー
var ErrInvalidPath = errors.New("invalid path")

// Store は "/" 区切りのパスでアドレスする JSON ツリーのストア
type Store interface {
	// Get はパス以下のサブツリーを一度だけ読み取る
	Get(ctx context.Context, path string) (Snapshot, error)

	// Set はパス以下のサブツリーを上書きする（nil は削除）
	Set(ctx context.Context, path string, value any) error

	// Push は採番したキーで子ノードを追加し、そのキーを返す
	Push(ctx context.Context, path string, value any) (string, error)

	// Recent は子ノードを field の値で並べ、最後の limit 件を新しい順で返す
	Recent(ctx context.Context, path, field string, limit int) ([]Snapshot, error)

	// Close はストアを閉じる
	Close() error
}

// Snapshot はある時点のノードの内容
type Snapshot struct {
	Key   string
	Value any
}

// Exists はノードに値があるかを返す
func (s Snapshot) Exists() bool {
	return s.Value != nil
}

// Children は子ノードをキー順で返す
func (s Snapshot) Children() []Snapshot {
	node, ok := s.Value.(map[string]any)
	if !ok {
		return nil
	}
	children := make([]Snapshot, 0, len(node))
	for _, k := range sortedKeys(node) {
		children = append(children, Snapshot{Key: k, Value: node[k]})
	}
	return children
}

// Decode はノードの値を v にデコードする
func (s Snapshot) Decode(v any) error {
	data, err := json.Marshal(s.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
