package store

import (
	"errors"
	"fmt"
)

const (
	SettingUserID     = "user_id"
	SettingAPIBaseURL = "api_base_url"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// EnsureUserID returns the cached user identifier, generating and caching
// one when none is stored yet.
func (s *Store) EnsureUserID(generate func() string) (string, error) {
	id, err := s.GetSetting(SettingUserID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	if generate == nil {
		return "", errors.New("no user id cached")
	}
	id = generate()
	if err := s.SetSetting(SettingUserID, id); err != nil {
		return "", fmt.Errorf("cache user id: %w", err)
	}
	return id, nil
}
