package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/ledgerly/ledgerly-server-go/internal/config"
	"github.com/ledgerly/ledgerly-server-go/internal/database/migrations"
)

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.MigrationTimeout)
	defer cancel()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())

	if err := gooseUpContext(ctx, db.DB.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	log.Info().Msg("database migrations applied")
	return nil
}
