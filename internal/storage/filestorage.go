package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MrPunder/codeform/internal/models"
	"github.com/google/uuid"
)

const PreferencesFileName = "preferences.json"

// Filestorage хранит настройки в памяти и сбрасывает их в JSON-файл при каждом изменении
type Filestorage struct {
	prefs   sync.Map // prefKey -> *models.Preference
	saveMu  sync.Mutex
	dataDir string
}

// NewFilestorage создает файловое хранилище и загружает сохраненные настройки
func NewFilestorage(dataDir string) (*Filestorage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	fs := &Filestorage{
		dataDir: dataDir,
	}

	if err := fs.loadPreferences(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return fs, nil
}

func (fs *Filestorage) GetPreference(_ context.Context, clientID uuid.UUID, key string) (string, error) {
	val, ok := fs.prefs.Load(prefKey{ClientID: clientID, Key: key})
	if !ok {
		return "", ErrNotFound
	}
	return val.(*models.Preference).Value, nil
}

func (fs *Filestorage) SetPreference(_ context.Context, clientID uuid.UUID, key, value string) error {
	fs.prefs.Store(prefKey{ClientID: clientID, Key: key}, &models.Preference{
		ClientID:  clientID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	return fs.savePreferences()
}

func (fs *Filestorage) Close() {}

// loadPreferences загружает настройки из файла
func (fs *Filestorage) loadPreferences() error {
	filePath := filepath.Join(fs.dataDir, PreferencesFileName)

	// Файл не существует, создаем пустой файл
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fs.savePreferences()
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read preferences file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var prefs []*models.Preference
	if err := json.Unmarshal(data, &prefs); err != nil {
		return fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	for _, p := range prefs {
		fs.prefs.Store(prefKey{ClientID: p.ClientID, Key: p.Key}, p)
	}

	return nil
}

// savePreferences сохраняет все настройки в файл
func (fs *Filestorage) savePreferences() error {
	fs.saveMu.Lock()
	defer fs.saveMu.Unlock()

	filePath := filepath.Join(fs.dataDir, PreferencesFileName)

	prefs := []*models.Preference{}
	fs.prefs.Range(func(key, value interface{}) bool {
		prefs = append(prefs, value.(*models.Preference))
		return true
	})

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences file: %w", err)
	}

	return nil
}
