//go:build tools

// Package tools は go generate で使うツールの依存を go.mod に記録する
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
