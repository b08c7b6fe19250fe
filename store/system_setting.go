package store

import (
	"context"
)

// System setting names.
const (
	// SettingSchemaVersion tracks the applied database schema version.
	SettingSchemaVersion = "schema_version"
	// SettingHostRegistered is set once the first user has signed up.
	SettingHostRegistered = "host_registered"
	// SettingServerSecret holds the generated token signing secret when no
	// explicit secret is configured, so sessions survive restarts.
	SettingServerSecret = "server_secret"
)

type SystemSetting struct {
	Name        string
	Value       string
	Description string
}

type FindSystemSetting struct {
	Name string
}

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	setting, err := s.driver.UpsertSystemSetting(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.settingCache.Set(ctx, setting.Name, setting)
	return setting, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error) {
	settings, err := s.driver.ListSystemSettings(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, setting := range settings {
		s.settingCache.Set(ctx, setting.Name, setting)
	}
	return settings, nil
}

func (s *Store) GetSystemSetting(ctx context.Context, find *FindSystemSetting) (*SystemSetting, error) {
	if find.Name != "" {
		if cached, ok := s.settingCache.Get(ctx, find.Name); ok {
			if setting, ok := cached.(*SystemSetting); ok {
				return setting, nil
			}
		}
	}

	list, err := s.ListSystemSettings(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
