package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/tasukuchiba/channel_chat/internal/models"
	"github.com/tasukuchiba/channel_chat/internal/storage"
	"golang.org/x/sync/errgroup"
)

const channelsPath = "channels"

// ResetChannels は Reset が作り直すチャンネル
var ResetChannels = []string{"general", "random"}

// ChannelService はチャンネルの作成と一覧を扱う
type ChannelService struct {
	store  storage.Store
	now    func() time.Time
	notice string
	log    *slog.Logger
}

// NewChannelService は新しいChannelServiceを作成する
func NewChannelService(store storage.Store, opts ...Option) *ChannelService {
	o := newOptions(opts)
	return &ChannelService{
		store:  store,
		now:    o.now,
		notice: CreatedNotice(o.locale),
		log:    o.log,
	}
}

// Create はチャンネルを2件のシードメッセージで作り直す。既存のメッセージは消える
func (s *ChannelService) Create(ctx context.Context, name string) error {
	path, err := storage.Join(channelsPath, name)
	if err != nil {
		return err
	}

	t0 := s.now()
	seed := map[string]any{
		"messages": map[string]models.Message{
			"1": {
				Body: fmt.Sprintf("Welcome to #%s channel!", name),
				Date: models.FormatDate(t0),
				User: models.Robot,
			},
			"2": {
				Body: s.notice,
				Date: models.FormatDate(t0.Add(time.Second)),
				User: models.Robot,
			},
		},
	}

	if err := s.store.Set(ctx, path, seed); err != nil {
		return fmt.Errorf("create channel %q: %w", name, err)
	}
	s.log.InfoContext(ctx, "channel created", "channel", name)
	return nil
}

// List は全チャンネル名をキー順で返す
func (s *ChannelService) List(ctx context.Context) ([]string, error) {
	snap, err := s.store.Get(ctx, channelsPath)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return lo.Map(snap.Children(), func(c storage.Snapshot, _ int) string {
		return c.Key
	}), nil
}

// Reset は general と random を作り直す
func (s *ChannelService) Reset(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range ResetChannels {
		g.Go(func() error {
			return s.Create(ctx, name)
		})
	}
	return g.Wait()
}
