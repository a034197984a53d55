package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepositoryImpl struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) company.SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, 0, len(days))
	for _, d := range days {
		out = append(out, int32(d))
	}
	return out
}

// GetSettings implements company.SettingsRepository.
func (r *settingsRepositoryImpl) GetSettings(ctx context.Context, companyID string) (company.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT company_id, timezone, shift_start, shift_end,
		       grace_period_minutes, early_punch_in_minutes,
		       min_working_hours, max_working_hours, overtime_threshold_hours, max_daily_hours,
		       weekly_off_days, geofence_enabled, office_latitude, office_longitude, geofence_radius_meters,
		       created_at, updated_at
		FROM company_settings
		WHERE company_id = $1
	`
	var (
		s       company.Settings
		offDays []int32
	)
	err := q.QueryRow(ctx, query, companyID).Scan(
		&s.CompanyID, &s.Timezone, &s.ShiftStart, &s.ShiftEnd,
		&s.GracePeriodMinutes, &s.EarlyPunchInMinutes,
		&s.MinWorkingHours, &s.MaxWorkingHours, &s.OvertimeThresholdHours, &s.MaxDailyHours,
		&offDays, &s.GeofenceEnabled, &s.OfficeLatitude, &s.OfficeLongitude, &s.GeofenceRadiusMeters,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.Settings{}, company.ErrSettingsNotFound
		}
		return company.Settings{}, fmt.Errorf("failed to get company settings: %w", err)
	}
	for _, d := range offDays {
		s.WeeklyOffDays = append(s.WeeklyOffDays, time.Weekday(d))
	}
	return s, nil
}

// UpsertSettings implements company.SettingsRepository.
func (r *settingsRepositoryImpl) UpsertSettings(ctx context.Context, s company.Settings) (company.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO company_settings (
			company_id, timezone, shift_start, shift_end,
			grace_period_minutes, early_punch_in_minutes,
			min_working_hours, max_working_hours, overtime_threshold_hours, max_daily_hours,
			weekly_off_days, geofence_enabled, office_latitude, office_longitude, geofence_radius_meters
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (company_id) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			shift_start = EXCLUDED.shift_start,
			shift_end = EXCLUDED.shift_end,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			early_punch_in_minutes = EXCLUDED.early_punch_in_minutes,
			min_working_hours = EXCLUDED.min_working_hours,
			max_working_hours = EXCLUDED.max_working_hours,
			overtime_threshold_hours = EXCLUDED.overtime_threshold_hours,
			max_daily_hours = EXCLUDED.max_daily_hours,
			weekly_off_days = EXCLUDED.weekly_off_days,
			geofence_enabled = EXCLUDED.geofence_enabled,
			office_latitude = EXCLUDED.office_latitude,
			office_longitude = EXCLUDED.office_longitude,
			geofence_radius_meters = EXCLUDED.geofence_radius_meters,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		s.CompanyID, s.Timezone, s.ShiftStart, s.ShiftEnd,
		s.GracePeriodMinutes, s.EarlyPunchInMinutes,
		s.MinWorkingHours, s.MaxWorkingHours, s.OvertimeThresholdHours, s.MaxDailyHours,
		weekdaysToInts(s.WeeklyOffDays), s.GeofenceEnabled, s.OfficeLatitude, s.OfficeLongitude, s.GeofenceRadiusMeters,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return company.Settings{}, fmt.Errorf("failed to upsert company settings: %w", err)
	}
	return s, nil
}
