// Package theme хранит выбранную клиентом тему страницы.
package theme

import (
	"context"
	"errors"

	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/models"
	"github.com/MrPunder/codeform/internal/storage"
	"github.com/google/uuid"
)

// PreferenceKey - ключ настройки темы в хранилище
const PreferenceKey = "theme"

type Preference struct {
	store storage.Storage
	log   logger.Logger
}

func NewPreference(store storage.Storage, log logger.Logger) *Preference {
	return &Preference{store: store, log: log}
}

// Load возвращает сохраненную тему клиента.
// Если тема не сохранена или хранилище недоступно, используется светлая.
func (p *Preference) Load(ctx context.Context, clientID uuid.UUID) models.Theme {
	value, err := p.store.GetPreference(ctx, clientID, PreferenceKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.log.Errorf("failed to load theme for %s: %v", clientID, err)
		}
		return models.ThemeLight
	}

	t, err := models.ParseTheme(value)
	if err != nil {
		p.log.Errorf("stored theme for %s is invalid: %v", clientID, err)
		return models.ThemeLight
	}
	return t
}

// Set сохраняет тему сразу при выборе
func (p *Preference) Set(ctx context.Context, clientID uuid.UUID, t models.Theme) error {
	return p.store.SetPreference(ctx, clientID, PreferenceKey, string(t))
}

// Toggle переключает тему и сохраняет результат
func (p *Preference) Toggle(ctx context.Context, clientID uuid.UUID) (models.Theme, error) {
	next := p.Load(ctx, clientID).Toggle()
	if err := p.Set(ctx, clientID, next); err != nil {
		return next, err
	}
	return next, nil
}
