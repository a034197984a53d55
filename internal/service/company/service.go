package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/fixtures"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

const settingsCacheTTL = 10 * time.Minute

type CompanyServiceImpl struct {
	company.SettingsRepository
	cache cache.Cache
	audit audit.Recorder
}

func NewCompanyService(settingsRepo company.SettingsRepository, settingsCache cache.Cache, recorder audit.Recorder) company.CompanyService {
	return &CompanyServiceImpl{
		SettingsRepository: settingsRepo,
		cache:              settingsCache,
		audit:              recorder,
	}
}

func settingsKey(companyID string) string {
	return "company_settings:" + companyID
}

// ResolveSettings implements company.CompanyService.
func (c *CompanyServiceImpl) ResolveSettings(ctx context.Context, companyID string) (company.Settings, error) {
	if companyID == "" {
		return company.Settings{}, user.ErrCompanyIDRequired
	}

	var cached company.Settings
	if hit, err := c.cache.Get(ctx, settingsKey(companyID), &cached); err != nil {
		slog.Warn("settings cache read failed", "company_id", companyID, "error", err)
	} else if hit {
		return cached, nil
	}

	settings, err := c.SettingsRepository.GetSettings(ctx, companyID)
	if err != nil {
		if !errors.Is(err, company.ErrSettingsNotFound) {
			return company.Settings{}, fmt.Errorf("failed to get company settings: %w", err)
		}
		settings = fixtures.DefaultSettings(companyID)
	}

	if err := c.cache.Set(ctx, settingsKey(companyID), settings, settingsCacheTTL); err != nil {
		slog.Warn("settings cache write failed", "company_id", companyID, "error", err)
	}
	return settings, nil
}

// GetSettings implements company.CompanyService.
func (c *CompanyServiceImpl) GetSettings(ctx context.Context) (company.SettingsResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return company.SettingsResponse{}, err
	}
	settings, err := c.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return company.SettingsResponse{}, err
	}
	return company.NewSettingsResponse(settings), nil
}

// UpdateSettings implements company.CompanyService.
func (c *CompanyServiceImpl) UpdateSettings(ctx context.Context, req company.UpdateSettingsRequest) (company.SettingsResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return company.SettingsResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCompanyManage) {
		return company.SettingsResponse{}, user.ErrOwnerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return company.SettingsResponse{}, err
	}

	current, err := c.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return company.SettingsResponse{}, err
	}
	updated := req.Apply(current)
	if updated.MinWorkingHours > updated.MaxWorkingHours {
		var errs validator.ValidationErrors
		errs.Add("min_working_hours", "must not exceed max_working_hours")
		return company.SettingsResponse{}, errs
	}

	saved, err := c.SettingsRepository.UpsertSettings(ctx, updated)
	if err != nil {
		return company.SettingsResponse{}, fmt.Errorf("failed to save company settings: %w", err)
	}
	if err := c.cache.Delete(ctx, settingsKey(actor.CompanyID)); err != nil {
		slog.Warn("settings cache invalidation failed", "company_id", actor.CompanyID, "error", err)
	}

	c.audit.Record(ctx, audit.Log{
		Action:     audit.ActionSettingsUpdate,
		EntityType: "company_settings",
		EntityID:   actor.CompanyID,
	})
	return company.NewSettingsResponse(saved), nil
}
