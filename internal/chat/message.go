package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasukuchiba/channel_chat/internal/models"
	"github.com/tasukuchiba/channel_chat/internal/storage"
)

const (
	// RecentLimit は ListRecent が返すメッセージの最大件数
	RecentLimit = 20

	orderField = "date"
)

// MessageService はチャンネルへの投稿と最新メッセージの取得を扱う
type MessageService struct {
	store     storage.Store
	now       func() time.Time
	publisher Publisher
	log       *slog.Logger
}

// NewMessageService は新しいMessageServiceを作成する
func NewMessageService(store storage.Store, opts ...Option) *MessageService {
	o := newOptions(opts)
	return &MessageService{
		store:     store,
		now:       o.now,
		publisher: o.publisher,
		log:       o.log,
	}
}

func messagesPath(channel string) (string, error) {
	return storage.Join(channelsPath, channel, "messages")
}

// Append はメッセージをチャンネルに追加する。チャンネルの存在は確認しない
func (s *MessageService) Append(ctx context.Context, channel, body string, user models.User) (models.Message, error) {
	path, err := messagesPath(channel)
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		Body: body,
		Date: models.FormatDate(s.now()),
		User: user,
	}
	key, err := s.store.Push(ctx, path, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}
	msg.ID = key

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, channel, msg); err != nil {
			s.log.WarnContext(ctx, "failed to publish message", "channel", channel, "id", key, "error", err)
		}
	}
	return msg, nil
}

// ListRecent は最新 RecentLimit 件のメッセージを新しい順で返す
func (s *MessageService) ListRecent(ctx context.Context, channel string) ([]models.Message, error) {
	path, err := messagesPath(channel)
	if err != nil {
		return nil, err
	}

	snaps, err := s.store.Recent(ctx, path, orderField, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]models.Message, 0, len(snaps))
	for _, snap := range snaps {
		var m models.Message
		if err := snap.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", snap.Key, err)
		}
		m.ID = snap.Key
		messages = append(messages, m)
	}
	return messages, nil
}
