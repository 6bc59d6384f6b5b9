package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"cardkeeper/internal/app/server/config"
	"cardkeeper/internal/infrastructure/migration"
)

// коды ошибок Postgres, которые переводятся в доменные
const (
	codeUndefinedColumn = "42703"
	codeUniqueViolation = "23505"
)

type Storage struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// New открывает пул и накатывает миграции
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.DB.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	mg := migration.NewMigration(cfg, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	s := &Storage{pool: pool, log: log.With("component", "postgres")}
	if version, dirty, err := s.SchemaVersion(ctx); err == nil {
		s.log.Info("schema ready", "version", version, "dirty", dirty)
	}
	return s, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// SchemaVersion читает версию схемы из таблицы golang-migrate
func (s *Storage) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := s.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

func pgCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
