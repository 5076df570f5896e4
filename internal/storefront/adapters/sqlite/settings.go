package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/lvs-storefront/internal/storefront/domain"
	"github.com/jcmexdev/lvs-storefront/internal/storefront/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

type SettingsStore struct {
	db *sql.DB
}

func (s *SettingsStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("sqlite: query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Settings{}, fmt.Errorf("sqlite: scan setting: %w", err)
		}
		values[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("sqlite: iterate settings: %w", err)
	}
	return domain.SettingsFromValues(values)
}

func (s *SettingsStore) SetSetting(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return &domain.ValidationError{Field: key, Reason: "value must be valid JSON"}
	}
	const q = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, q, key, string(value)); err != nil {
		return fmt.Errorf("sqlite: set setting %q: %w", key, err)
	}
	return nil
}
