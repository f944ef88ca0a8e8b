package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/samber/lo"
	"github.com/tasukuchiba/channel_chat/internal/storage/migrations"
)

// PostgresStorage は JSON ツリーの葉を PostgreSQL の store_nodes テーブルに保存するストア
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage は接続を確立し、マイグレーションを実行してPostgresStorageを作成する
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return newPostgresStorage(db), nil
}

func newPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// storeWriteLock は書き込みを直列化するアドバイザリロックのキー
const storeWriteLock int64 = 0x73746f7265

// gooseUpContext はテスト用の差し替えポイント
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations は埋め込みのマイグレーションを適用する
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// withTx はトランザクション内で fn を実行し、エラーならロールバックする
func (s *PostgresStorage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// Get はパス以下のサブツリーを読み取る
func (s *PostgresStorage) Get(ctx context.Context, path string) (Snapshot, error) {
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	var rows *sql.Rows
	if path == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT path, value
			FROM store_nodes
			ORDER BY path
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT path, value
			FROM store_nodes
			WHERE path = $1 OR left(path, char_length($2)) = $2
			ORDER BY path
		`, path, path+"/")
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	leaves := map[string]any{}
	for rows.Next() {
		var p string
		var raw []byte
		if err := rows.Scan(&p, &raw); err != nil {
			return Snapshot{}, fmt.Errorf("db error: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", p, err)
		}
		leaves[relPath(path, p)] = v
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("db error: %w", err)
	}

	return Snapshot{Key: lastSegment(segs), Value: unflatten(leaves)}, nil
}

// Set はサブツリーと祖先の葉を削除してから新しい葉を挿入する
func (s *PostgresStorage) Set(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}

	leaves := map[string]any{}
	flatten("", v, leaves)
	rels := lo.Keys(leaves)
	slices.Sort(rels)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		// 並行する Set は後から確定したものが勝つ
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, storeWriteLock); err != nil {
			return err
		}
		if path == "" {
			if _, err := tx.ExecContext(ctx, `DELETE FROM store_nodes`); err != nil {
				return err
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM store_nodes
				WHERE path = $1 OR left(path, char_length($2)) = $2
			`, path, path+"/"); err != nil {
				return err
			}
			// 祖先が葉だった場合はオブジェクトに置き換わる
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM store_nodes
				WHERE path = ANY($1)
			`, pq.Array(append([]string{""}, ancestors(segs)...))); err != nil {
				return err
			}
		}

		for _, rel := range rels {
			data, err := json.Marshal(leaves[rel])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO store_nodes (path, value)
				VALUES ($1, $2)
			`, joinRel(path, rel), string(data)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Push は採番したキーで子ノードを追加する
func (s *PostgresStorage) Push(ctx context.Context, path string, value any) (string, error) {
	key, err := newKey()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, joinRel(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// Recent は子ノードを field の値で並べ、最後の limit 件を新しい順で返す
func (s *PostgresStorage) Recent(ctx context.Context, path, field string, limit int) ([]Snapshot, error) {
	snap, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return newestFirst(snap.Value, field, limit), nil
}

// Close はデータベース接続を閉じる
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func relPath(base, full string) string {
	switch {
	case base == "":
		return full
	case full == base:
		return ""
	}
	return strings.TrimPrefix(full, base+"/")
}
