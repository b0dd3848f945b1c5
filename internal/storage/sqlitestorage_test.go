package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getMigrationsPath возвращает абсолютный путь к миграциям нужной базы
func getMigrationsPath(t *testing.T, driver string) string {
	currentDir, err := os.Getwd()
	require.NoError(t, err, "Failed to get current directory")

	migrationsPath := filepath.Join(currentDir, "..", "..", "migrations", driver)

	_, err = os.Stat(migrationsPath)
	require.NoError(t, err, "Migrations directory does not exist: "+migrationsPath)

	return migrationsPath
}

// TestSQLiteStorage_Integration тестирует интеграцию с SQLite
func TestSQLiteStorage_Integration(t *testing.T) {
	// Пропускаем тест, если установлена переменная окружения SKIP_SQLITE_TESTS
	if os.Getenv("SKIP_SQLITE_TESTS") == "true" {
		t.Skip("Skipping SQLite integration tests")
	}

	dbPath := filepath.Join(t.TempDir(), "codeform_test.db")
	migrationsPath := getMigrationsPath(t, "sqlite")

	store, err := NewSQLiteStorage(dbPath, migrationsPath)
	require.NoError(t, err, "Failed to create SQLite storage")

	require.NoError(t, store.CleanupTables(context.Background()))

	t.Run("Preferences", func(t *testing.T) {
		testPreferenceOperations(t, store)
	})

	// Повторное открытие: миграции уже применены, данные на месте
	t.Run("Reopen", func(t *testing.T) {
		client := uuid.New()
		first, err := NewSQLiteStorage(dbPath, migrationsPath)
		require.NoError(t, err)
		require.NoError(t, first.SetPreference(context.Background(), client, "theme", "dark"))
		first.Close()

		second, err := NewSQLiteStorage(dbPath, migrationsPath)
		require.NoError(t, err)
		defer second.Close()

		value, err := second.GetPreference(context.Background(), client, "theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", value)
	})
}

// TestPgStorage_Integration запускается только при заданной CODEFORM_TEST_DATABASE_DSN
func TestPgStorage_Integration(t *testing.T) {
	dsn := os.Getenv("CODEFORM_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("CODEFORM_TEST_DATABASE_DSN is not set")
	}

	store, err := NewPgStorage(dsn, getMigrationsPath(t, "postgres"))
	require.NoError(t, err, "Failed to create PostgreSQL storage")
	require.NoError(t, store.CleanupTables(context.Background()))

	t.Run("Preferences", func(t *testing.T) {
		testPreferenceOperations(t, store)
	})
}
