//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../mocks/mock_verifier.go -package=mocks
package auth

import "context"

// Claims は検証済みトークンから取り出したユーザー情報
type Claims struct {
	Subject string
	Name    string
	Picture string
}

// Verifier はトークンを検証する外部サービス
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
