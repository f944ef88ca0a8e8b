package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ツリーは map[string]any（内部ノード）と string / float64 / bool（葉）で表現する。
// 空のオブジェクトと null は保持しない。

// normalize は任意の値を JSON 経由でツリー表現に変換する
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(v)
}

// prune は null と空オブジェクトを取り除き、配列をインデックスキーのオブジェクトにする
func prune(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			if !validKey(k) {
				return nil, fmt.Errorf("%w: key %q", ErrInvalidPath, k)
			}
			pc, err := prune(c)
			if err != nil {
				return nil, err
			}
			if pc != nil {
				out[k] = pc
			}
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	case []any:
		m := make(map[string]any, len(t))
		for i, c := range t {
			m[strconv.Itoa(i)] = c
		}
		return prune(m)
	default:
		return t, nil
	}
}

// clone はツリーのディープコピーを返す
func clone(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, c := range m {
		out[k] = clone(c)
	}
	return out
}

// getIn は segs が指すノードを返す。存在しなければ nil
func getIn(node any, segs []string) any {
	for _, s := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[s]
	}
	return node
}

// setIn は segs の位置に value を置いた新しいノードを返す。
// 途中の葉はオブジェクトに置き換え、空になったオブジェクトは取り除く
func setIn(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	child := setIn(m[segs[0]], segs[1:], value)
	if child == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// flatten はツリーを「相対パス → 葉の値」に展開する
func flatten(prefix string, v any, out map[string]any) {
	m, ok := v.(map[string]any)
	if !ok {
		if v != nil {
			out[prefix] = v
		}
		return
	}
	for k, c := range m {
		if prefix == "" {
			flatten(k, c, out)
		} else {
			flatten(prefix+"/"+k, c, out)
		}
	}
}

// unflatten は flatten の逆変換
func unflatten(leaves map[string]any) any {
	var root any
	for rel, v := range leaves {
		var segs []string
		if rel != "" {
			segs = strings.Split(rel, "/")
		}
		root = setIn(root, segs, v)
	}
	return root
}

// compareKeys は子ノードのキー順を決める。
// 32bit 整数として読めるキーが先（数値順）、それ以外は辞書順
func compareKeys(a, b string) int {
	ai, aok := intKey(a)
	bi, bok := intKey(b)
	switch {
	case aok && bok:
		return cmp.Compare(ai, bi)
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

func intKey(k string) (int64, bool) {
	n, err := strconv.ParseInt(k, 10, 32)
	if err != nil || strconv.FormatInt(n, 10) != k {
		return 0, false
	}
	return n, true
}

func sortedKeys(m map[string]any) []string {
	keys := lo.Keys(m)
	slices.SortFunc(keys, compareKeys)
	return keys
}

// valueRank は子フィールドでの並び順の型の優先度
// 欠損 < false < true < 数値 < 文字列 < オブジェクト
func valueRank(v any) int {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if !t {
			return 1
		}
		return 2
	case float64:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func compareValues(a, b any) int {
	if c := cmp.Compare(valueRank(a), valueRank(b)); c != 0 {
		return c
	}
	switch x := a.(type) {
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}

// lastByChild は node の子を field の値で並べ、最後の limit 件を古い順で返す
func lastByChild(node any, field string, limit int) []Snapshot {
	children := Snapshot{Value: node}.Children()
	slices.SortStableFunc(children, func(a, b Snapshot) int {
		if c := compareValues(childField(a.Value, field), childField(b.Value, field)); c != 0 {
			return c
		}
		return compareKeys(a.Key, b.Key)
	})
	if limit > 0 && len(children) > limit {
		children = children[len(children)-limit:]
	}
	return children
}

// newestFirst は lastByChild の結果を新しい順にする
func newestFirst(node any, field string, limit int) []Snapshot {
	out := lastByChild(node, field, limit)
	slices.Reverse(out)
	return out
}

func childField(v any, field string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[field]
}

// newKey は Push 用のキーを採番する。UUIDv7 なので作成順に単調増加する
func newKey() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
