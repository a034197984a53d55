package company

import "context"

type CompanyService interface {
	// ResolveSettings returns stored settings or the defaults for companyID.
	ResolveSettings(ctx context.Context, companyID string) (Settings, error)

	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsResponse, error)
}
