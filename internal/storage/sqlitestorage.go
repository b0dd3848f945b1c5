package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage реализует интерфейс Storage с хранением данных в SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage создает новое хранилище SQLite и применяет миграции
func NewSQLiteStorage(dbPath, migrationsPath string) (*SQLiteStorage, error) {
	// Создаем директорию для базы данных, если она не существует
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}

	if err := applyMigrations(migrationsPath, "sqlite3://"+dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close закрывает соединение с базой данных
func (s *SQLiteStorage) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *SQLiteStorage) GetPreference(ctx context.Context, clientID uuid.UUID, key string) (string, error) {
	query := `SELECT value FROM preferences WHERE client_id = ? AND key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, clientID.String(), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get preference: %w", err)
	}
	return value, nil
}

func (s *SQLiteStorage) SetPreference(ctx context.Context, clientID uuid.UUID, key, value string) error {
	query := `
		INSERT INTO preferences (client_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, clientID.String(), key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// CleanupTables очищает таблицы (используется в тестах)
func (s *SQLiteStorage) CleanupTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM preferences"); err != nil {
		return fmt.Errorf("failed to clean preferences table: %w", err)
	}
	return nil
}
