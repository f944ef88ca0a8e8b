package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/tasukuchiba/channel_chat/internal/auth"
	"github.com/tasukuchiba/channel_chat/internal/config"
	"github.com/tasukuchiba/channel_chat/internal/storage"
)

// OpenStore は STORAGE_TYPE に応じてストアを開く
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.Store, error) {
	switch cfg.StorageType {
	case "postgres":
		store, err := storage.NewPostgresStorage(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info("Using PostgreSQL storage")
		return store, nil

	case "badger":
		store, err := storage.NewBadgerStorage(badgerOptions(ctx, cfg, log))
		if err != nil {
			return nil, err
		}
		if cfg.BadgerInspectPort > 0 {
			database.StartDebugServer(store.DB(), cfg.BadgerInspectPort, "/inspect", inspectRow)
			log.Info("Badger inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", cfg.BadgerInspectPort))
		}
		log.Info("Using Badger storage", "path", cfg.BadgerPath)
		return store, nil

	default:
		log.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}

func badgerOptions(ctx context.Context, cfg config.Config, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(cfg.BadgerPath)
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

// inspectRow は葉の JSON をそのまま表示する
func inspectRow(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	row.Detail = string(val)
	return row
}

// NewVerifier は AUTH_TOKEN_SECRET が無ければ nil を返す
func NewVerifier(cfg config.Config) auth.Verifier {
	if cfg.AuthTokenSecret == "" {
		return nil
	}
	return auth.NewJWTVerifier([]byte(cfg.AuthTokenSecret), cfg.AuthTokenIssuer, cfg.AuthTokenAudience)
}
