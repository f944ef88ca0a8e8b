//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_publisher.go -package=mocks
package chat

import (
	"context"

	"github.com/tasukuchiba/channel_chat/internal/models"
)

// Publisher は保存済みのメッセージを購読者に配信する
type Publisher interface {
	Publish(ctx context.Context, channel string, msg models.Message) error
}
