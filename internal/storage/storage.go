package storage

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/MrPunder/codeform/internal/config"
	"github.com/google/uuid"
)

// ErrNotFound возвращается, когда настройка клиента не сохранена
var ErrNotFound = errors.New("preference not found")

// Storage хранит настройки клиентов между сессиями (например, тему страницы)
type Storage interface {
	GetPreference(ctx context.Context, clientID uuid.UUID, key string) (string, error)
	SetPreference(ctx context.Context, clientID uuid.UUID, key, value string) error
	Close()
}

// prefKey - ключ настройки в хранилищах на sync.Map
type prefKey struct {
	ClientID uuid.UUID
	Key      string
}

// New создает хранилище по конфигурации; неизвестный тип означает хранение в памяти
func New(conf config.StorageConfig) (Storage, error) {
	switch conf.Type {
	case "file":
		return NewFilestorage(conf.DataPath)
	case "postgres":
		return NewPgStorage(conf.ConnectionString, filepath.Join(conf.MigrationsPath, "postgres"))
	case "sqlite":
		return NewSQLiteStorage(conf.DBPath, filepath.Join(conf.MigrationsPath, "sqlite"))
	default:
		return NewMemstorage(), nil
	}
}
