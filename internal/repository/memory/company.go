package memory

import (
	"context"
	"slices"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
)

type settingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) company.SettingsRepository {
	return &settingsRepository{store: store}
}

func (r *settingsRepository) GetSettings(ctx context.Context, companyID string) (company.Settings, error) {
	var (
		s  company.Settings
		ok bool
	)
	r.store.read(func() {
		s, ok = r.store.settings[companyID]
	})
	if !ok {
		return company.Settings{}, company.ErrSettingsNotFound
	}
	s.WeeklyOffDays = slices.Clone(s.WeeklyOffDays)
	return s, nil
}

func (r *settingsRepository) UpsertSettings(ctx context.Context, s company.Settings) (company.Settings, error) {
	err := r.store.write(ctx, func() error {
		now := time.Now()
		if current, ok := r.store.settings[s.CompanyID]; ok {
			s.CreatedAt = current.CreatedAt
		} else {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		s.WeeklyOffDays = slices.Clone(s.WeeklyOffDays)
		r.store.settings[s.CompanyID] = s
		return nil
	})
	return s, err
}
