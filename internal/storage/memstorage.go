package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type Memstorage struct {
	prefs sync.Map // prefKey -> string
}

func NewMemstorage() *Memstorage {
	return &Memstorage{}
}

func (m *Memstorage) GetPreference(_ context.Context, clientID uuid.UUID, key string) (string, error) {
	val, ok := m.prefs.Load(prefKey{ClientID: clientID, Key: key})
	if !ok {
		return "", ErrNotFound
	}
	return val.(string), nil
}

func (m *Memstorage) SetPreference(_ context.Context, clientID uuid.UUID, key, value string) error {
	m.prefs.Store(prefKey{ClientID: clientID, Key: key}, value)
	return nil
}

func (m *Memstorage) Close() {}
