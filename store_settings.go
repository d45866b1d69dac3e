package brctc

import (
	"context"

	"github.com/brctc/brctc/realtime"
)

// ListSettings returns every stored setting.
func (s *Store) ListSettings(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT setting_key, setting_value FROM admin_settings`)
	if err != nil {
		return nil, wrapStoreErr("list settings", err)
	}
	defer rows.Close()

	settings := Settings{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// UpsertSetting inserts key or overwrites its value.
func (s *Store) UpsertSetting(ctx context.Context, key, value string) error {
	if err := requireFields(map[string]string{"setting_key": key}); err != nil {
		return err
	}
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO admin_settings (setting_key, setting_value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(setting_key) DO UPDATE SET setting_value = excluded.setting_value, updated_at = excluded.updated_at`,
		key, value, now, now)
	if err != nil {
		return wrapStoreErr("upsert setting "+key, err)
	}
	s.publish(TableSettings, realtime.OpUpdate, key)
	return nil
}
