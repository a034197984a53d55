package company

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type UpdateSettingsRequest struct {
	Timezone               *string  `json:"timezone,omitempty"`
	ShiftStart             *string  `json:"shift_start,omitempty"`
	ShiftEnd               *string  `json:"shift_end,omitempty"`
	GracePeriodMinutes     *int     `json:"grace_period_minutes,omitempty"`
	EarlyPunchInMinutes    *int     `json:"early_punch_in_minutes,omitempty"`
	MinWorkingHours        *float64 `json:"min_working_hours,omitempty"`
	MaxWorkingHours        *float64 `json:"max_working_hours,omitempty"`
	OvertimeThresholdHours *float64 `json:"overtime_threshold_hours,omitempty"`
	MaxDailyHours          *float64 `json:"max_daily_hours,omitempty"`
	WeeklyOffDays          []int    `json:"weekly_off_days,omitempty"`
	GeofenceEnabled        *bool    `json:"geofence_enabled,omitempty"`
	OfficeLatitude         *float64 `json:"office_latitude,omitempty"`
	OfficeLongitude        *float64 `json:"office_longitude,omitempty"`
	GeofenceRadiusMeters   *int     `json:"geofence_radius_meters,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Timezone != nil {
		if _, err := time.LoadLocation(*r.Timezone); err != nil || validator.IsEmpty(*r.Timezone) {
			errs.Add("timezone", "must be a valid IANA timezone")
		}
	}
	if r.ShiftStart != nil {
		if _, ok := validator.IsValidTimeOfDay(*r.ShiftStart); !ok {
			errs.Add("shift_start", "must be in HH:MM format")
		}
	}
	if r.ShiftEnd != nil {
		if _, ok := validator.IsValidTimeOfDay(*r.ShiftEnd); !ok {
			errs.Add("shift_end", "must be in HH:MM format")
		}
	}
	if r.GracePeriodMinutes != nil && (*r.GracePeriodMinutes < 0 || *r.GracePeriodMinutes > 240) {
		errs.Add("grace_period_minutes", "must be between 0 and 240")
	}
	if r.EarlyPunchInMinutes != nil && (*r.EarlyPunchInMinutes < 0 || *r.EarlyPunchInMinutes > 720) {
		errs.Add("early_punch_in_minutes", "must be between 0 and 720")
	}
	for field, v := range map[string]*float64{
		"min_working_hours":        r.MinWorkingHours,
		"max_working_hours":        r.MaxWorkingHours,
		"overtime_threshold_hours": r.OvertimeThresholdHours,
		"max_daily_hours":          r.MaxDailyHours,
	} {
		if v != nil && (*v < 0 || *v > 24) {
			errs.Add(field, "must be between 0 and 24")
		}
	}
	if r.MinWorkingHours != nil && r.MaxWorkingHours != nil && *r.MinWorkingHours > *r.MaxWorkingHours {
		errs.Add("min_working_hours", "must not exceed max_working_hours")
	}
	for _, d := range r.WeeklyOffDays {
		if d < 0 || d > 6 {
			errs.Add("weekly_off_days", "days must be between 0 (Sunday) and 6 (Saturday)")
			break
		}
	}
	if len(r.WeeklyOffDays) > 6 {
		errs.Add("weekly_off_days", "at least one working day is required")
	}
	if r.OfficeLatitude != nil && !validator.IsValidLatitude(*r.OfficeLatitude) {
		errs.Add("office_latitude", "must be between -90 and 90")
	}
	if r.OfficeLongitude != nil && !validator.IsValidLongitude(*r.OfficeLongitude) {
		errs.Add("office_longitude", "must be between -180 and 180")
	}
	if r.GeofenceRadiusMeters != nil && *r.GeofenceRadiusMeters <= 0 {
		errs.Add("geofence_radius_meters", "must be positive")
	}

	return errs.Err()
}

// Apply merges the non-nil fields of r into s.
func (r UpdateSettingsRequest) Apply(s Settings) Settings {
	if r.Timezone != nil {
		s.Timezone = *r.Timezone
	}
	if r.ShiftStart != nil {
		s.ShiftStart = *r.ShiftStart
	}
	if r.ShiftEnd != nil {
		s.ShiftEnd = *r.ShiftEnd
	}
	if r.GracePeriodMinutes != nil {
		s.GracePeriodMinutes = *r.GracePeriodMinutes
	}
	if r.EarlyPunchInMinutes != nil {
		s.EarlyPunchInMinutes = *r.EarlyPunchInMinutes
	}
	if r.MinWorkingHours != nil {
		s.MinWorkingHours = *r.MinWorkingHours
	}
	if r.MaxWorkingHours != nil {
		s.MaxWorkingHours = *r.MaxWorkingHours
	}
	if r.OvertimeThresholdHours != nil {
		s.OvertimeThresholdHours = *r.OvertimeThresholdHours
	}
	if r.MaxDailyHours != nil {
		s.MaxDailyHours = *r.MaxDailyHours
	}
	if r.WeeklyOffDays != nil {
		s.WeeklyOffDays = make([]time.Weekday, 0, len(r.WeeklyOffDays))
		for _, d := range r.WeeklyOffDays {
			s.WeeklyOffDays = append(s.WeeklyOffDays, time.Weekday(d))
		}
	}
	if r.GeofenceEnabled != nil {
		s.GeofenceEnabled = *r.GeofenceEnabled
	}
	if r.OfficeLatitude != nil {
		s.OfficeLatitude = r.OfficeLatitude
	}
	if r.OfficeLongitude != nil {
		s.OfficeLongitude = r.OfficeLongitude
	}
	if r.GeofenceRadiusMeters != nil {
		s.GeofenceRadiusMeters = *r.GeofenceRadiusMeters
	}
	return s
}

type SettingsResponse struct {
	CompanyID              string   `json:"company_id"`
	Timezone               string   `json:"timezone"`
	ShiftStart             string   `json:"shift_start"`
	ShiftEnd               string   `json:"shift_end"`
	GracePeriodMinutes     int      `json:"grace_period_minutes"`
	EarlyPunchInMinutes    int      `json:"early_punch_in_minutes"`
	MinWorkingHours        float64  `json:"min_working_hours"`
	MaxWorkingHours        float64  `json:"max_working_hours"`
	OvertimeThresholdHours float64  `json:"overtime_threshold_hours"`
	MaxDailyHours          float64  `json:"max_daily_hours"`
	WeeklyOffDays          []string `json:"weekly_off_days"`
	GeofenceEnabled        bool     `json:"geofence_enabled"`
	OfficeLatitude         *float64 `json:"office_latitude,omitempty"`
	OfficeLongitude        *float64 `json:"office_longitude,omitempty"`
	GeofenceRadiusMeters   int      `json:"geofence_radius_meters"`
}

func NewSettingsResponse(s Settings) SettingsResponse {
	days := make([]string, 0, len(s.WeeklyOffDays))
	for _, d := range s.WeeklyOffDays {
		days = append(days, d.String())
	}
	return SettingsResponse{
		CompanyID:              s.CompanyID,
		Timezone:               s.Timezone,
		ShiftStart:             s.ShiftStart,
		ShiftEnd:               s.ShiftEnd,
		GracePeriodMinutes:     s.GracePeriodMinutes,
		EarlyPunchInMinutes:    s.EarlyPunchInMinutes,
		MinWorkingHours:        s.MinWorkingHours,
		MaxWorkingHours:        s.MaxWorkingHours,
		OvertimeThresholdHours: s.OvertimeThresholdHours,
		MaxDailyHours:          s.MaxDailyHours,
		WeeklyOffDays:          days,
		GeofenceEnabled:        s.GeofenceEnabled,
		OfficeLatitude:         s.OfficeLatitude,
		OfficeLongitude:        s.OfficeLongitude,
		GeofenceRadiusMeters:   s.GeofenceRadiusMeters,
	}
}
