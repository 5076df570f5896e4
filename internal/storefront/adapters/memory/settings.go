package memory

import (
	"context"
	"encoding/json"
	"maps"
	"sync"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

type SettingsStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
	Err    error
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]json.RawMessage)}
}

func (s *SettingsStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return domain.Settings{}, s.Err
	}
	return domain.SettingsFromValues(s.values)
}

func (s *SettingsStore) SetSetting(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.values[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Values returns a copy of the raw key/value pairs.
func (s *SettingsStore) Values() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}
