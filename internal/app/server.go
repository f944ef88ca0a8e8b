package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tasukuchiba/channel_chat/internal/auth"
	"github.com/tasukuchiba/channel_chat/internal/chat"
	"github.com/tasukuchiba/channel_chat/internal/config"
	"github.com/tasukuchiba/channel_chat/internal/handlers"
	"github.com/tasukuchiba/channel_chat/internal/storage"
	"github.com/tasukuchiba/channel_chat/internal/websocket"
	"golang.org/x/sync/errgroup"
)

// Server はストア・サービス・WebSocket Hub をまとめた HTTP サーバー
type Server struct {
	cfg     config.Config
	log     *slog.Logger
	store   storage.Store
	hub     *websocket.Hub
	handler http.Handler
}

// New はストアを開いてサーバーを組み立てる
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, log, store), nil
}

func newServer(cfg config.Config, log *slog.Logger, store storage.Store) *Server {
	hub := websocket.NewHub(log)
	opts := []chat.Option{
		chat.WithLocale(cfg.Locale),
		chat.WithLogger(log),
	}
	channels := chat.NewChannelService(store, opts...)
	messages := chat.NewMessageService(store, append(opts, chat.WithPublisher(hub))...)
	resolver := auth.NewResolver(NewVerifier(cfg), log)

	return &Server{
		cfg:     cfg,
		log:     log,
		store:   store,
		hub:     hub,
		handler: handlers.NewHandler(channels, messages, resolver, hub, log).Router(),
	}
}

// Handler はルーティング済みのハンドラーを返す
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run は ctx がキャンセルされるまでサーバーと Hub を動かし、その後グレースフルに停止する
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.hub.Run(ctx)
	})

	g.Go(func() error {
		s.log.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("Server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close はストアを閉じる
func (s *Server) Close() error {
	if err := s.store.Close(); err != nil {
		s.log.Error("Error closing store", "error", err)
		return err
	}
	return nil
}
