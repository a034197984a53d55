package company

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
)

// Settings holds the per-company attendance and payroll policy.
type Settings struct {
	CompanyID              string
	Timezone               string
	ShiftStart             string // "HH:MM" in Timezone
	ShiftEnd               string // "HH:MM"; earlier than ShiftStart means an overnight shift
	GracePeriodMinutes     int
	EarlyPunchInMinutes    int
	MinWorkingHours        float64
	MaxWorkingHours        float64
	OvertimeThresholdHours float64
	MaxDailyHours          float64
	WeeklyOffDays          []time.Weekday

	// Geofence is stored and validated; it is enforced only when enabled.
	GeofenceEnabled      bool
	OfficeLatitude       *float64
	OfficeLongitude      *float64
	GeofenceRadiusMeters int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location returns the company timezone, falling back to UTC when unknown.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShiftWindow returns the scheduled shift start and end instants for a civil date.
func (s Settings) ShiftWindow(date time.Time) (start, end time.Time) {
	loc := s.Location()
	startClock, _ := time.Parse("15:04", s.ShiftStart)
	endClock, _ := time.Parse("15:04", s.ShiftEnd)

	start = utils.At(date, startClock, loc)
	end = utils.At(date, endClock, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end
}

// IsWorkingDay reports whether the weekday is not a weekly off-day.
func (s Settings) IsWorkingDay(day time.Weekday) bool {
	for _, off := range s.WeeklyOffDays {
		if off == day {
			return false
		}
	}
	return true
}
