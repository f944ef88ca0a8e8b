package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
	"github.com/tasukuchiba/channel_chat/internal/app"
	"github.com/tasukuchiba/channel_chat/internal/chat"
	"github.com/tasukuchiba/channel_chat/internal/config"
	"github.com/tasukuchiba/channel_chat/internal/storage"
)

// opener は設定とストアを用意する
type opener func(ctx context.Context) (config.Config, *slog.Logger, storage.Store, error)

func openFromEnv(ctx context.Context) (config.Config, *slog.Logger, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	// 標準出力は表の出力に使う
	log := logs.GetLoggerFromString("ERROR")
	if cfg.LogLevel == "DEBUG" {
		log = logs.GetLoggerFromString(cfg.LogLevel)
	}
	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, log, store, nil
}

// loader はストアを開かずに設定だけを読み込む
type loader func() (config.Config, error)

// session はサブコマンドが共有する状態
type session struct {
	load     loader
	cfg      config.Config
	store    storage.Store
	channels *chat.ChannelService
	messages *chat.MessageService
}

func newRootCmd(open opener, load loader) *cobra.Command {
	s := &session{load: load}
	cmd := &cobra.Command{
		Use:           "chatctl",
		Short:         "Operate the channel chat store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, log, store, err := open(cmd.Context())
		if err != nil {
			return err
		}
		opts := []chat.Option{chat.WithLocale(cfg.Locale), chat.WithLogger(log)}
		s.cfg = cfg
		s.store = store
		s.channels = chat.NewChannelService(store, opts...)
		s.messages = chat.NewMessageService(store, opts...)
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if s.store == nil {
			return nil
		}
		return s.store.Close()
	}

	for _, c := range []*cobra.Command{
		newResetCmd(s),
		newCreateCmd(s),
		newChannelsCmd(s),
		newMessagesCmd(s),
		newPostCmd(s),
		newTokenCmd(s),
	} {
		cmd.AddCommand(c)
	}
	return cmd
}

var errNoSecret = errors.New("AUTH_TOKEN_SECRET or --secret is required")
