package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/ledgerly/ledgerly-server-go/internal/client/session/migrations"
)

const memoryDSN = ":memory:"

// SQLiteStore keeps the session in a local SQLite key/value table.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (creating if needed) the store at path and applies
// its migrations. ":memory:" gives a private in-process store.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.DB, migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load session migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	values, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, k := range sessionKeys {
			if err := upsert(ctx, tx, k, values[k]); err != nil {
				return fmt.Errorf("save %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT key, value FROM session_kv WHERE key IN (?, ?, ?)`,
		KeyToken, KeyEmail, KeyProfile)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return decodeRecord(values)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM session_kv WHERE key IN (?, ?, ?)`,
			KeyToken, KeyEmail, KeyProfile)
		if err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) SaveRedirect(ctx context.Context, path string) error {
	if err := upsert(ctx, s.db, KeyRedirect, path); err != nil {
		return fmt.Errorf("save redirect: %w", err)
	}
	return nil
}

func (s *SQLiteStore) TakeRedirect(ctx context.Context) (string, error) {
	var path string
	err := s.db.GetContext(ctx, &path,
		`DELETE FROM session_kv WHERE key = ? RETURNING value`, KeyRedirect)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("take redirect: %w", err)
	}
	return path, nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO session_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, key, value)
	return err
}
