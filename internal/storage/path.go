package storage

import (
	"fmt"
	"strings"
)

// Join はセグメントを検証してパスを組み立てる
func Join(segments ...string) (string, error) {
	for _, s := range segments {
		if !validKey(s) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
	}
	return strings.Join(segments, "/"), nil
}

// splitPath はパスをセグメントに分割する。空文字列はルート
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if !validKey(s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// validKey はキーとして使える文字列かを返す
func validKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, "/.#$[]")
}

// ancestors はパスの祖先パスを浅い順に返す（ルートとパス自身は含まない）
func ancestors(segs []string) []string {
	out := make([]string, 0, len(segs))
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}

// joinRel はパスと相対パスを連結する。どちらも空でありうる
func joinRel(path, rel string) string {
	switch {
	case path == "":
		return rel
	case rel == "":
		return path
	}
	return path + "/" + rel
}
