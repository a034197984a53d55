package fixtures

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
)

// DefaultSettings is the policy applied to a company that has not stored its own.
func DefaultSettings(companyID string) company.Settings {
	return company.Settings{
		CompanyID:              companyID,
		Timezone:               "Asia/Kolkata",
		ShiftStart:             "09:00",
		ShiftEnd:               "18:00",
		GracePeriodMinutes:     10,
		EarlyPunchInMinutes:    60,
		MinWorkingHours:        0,
		MaxWorkingHours:        16,
		OvertimeThresholdHours: 9,
		MaxDailyHours:          9,
		WeeklyOffDays:          []time.Weekday{time.Sunday},
		GeofenceEnabled:        false,
		GeofenceRadiusMeters:   100,
	}
}
