package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStorage реализует интерфейс Storage с хранением данных в PostgreSQL
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage создает новое хранилище PostgreSQL и применяет миграции
func NewPgStorage(connString, migrationsPath string) (*PgStorage, error) {
	if err := applyMigrations(migrationsPath, pgxMigrateURL(connString)); err != nil {
		return nil, err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &PgStorage{pool: pool}, nil
}

func (p *PgStorage) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *PgStorage) GetPreference(ctx context.Context, clientID uuid.UUID, key string) (string, error) {
	query := `SELECT value FROM preferences WHERE client_id = $1 AND key = $2`

	var value string
	err := p.pool.QueryRow(ctx, query, clientID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return value, nil
}

func (p *PgStorage) SetPreference(ctx context.Context, clientID uuid.UUID, key, value string) error {
	query := `
		INSERT INTO preferences (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := p.pool.Exec(ctx, query, clientID, key, value); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// CleanupTables очищает таблицы (используется в тестах)
func (p *PgStorage) CleanupTables(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "DELETE FROM preferences"); err != nil {
		return fmt.Errorf("failed to clean preferences table: %w", err)
	}
	return nil
}
