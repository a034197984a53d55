package company

import "context"

type SettingsRepository interface {
	// GetSettings returns ErrSettingsNotFound when the company has none stored.
	GetSettings(ctx context.Context, companyID string) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)
}
