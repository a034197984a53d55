package company

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftWindow(t *testing.T) {
	s := Settings{Timezone: "UTC", ShiftStart: "09:00", ShiftEnd: "18:00"}
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	start, end := s.ShiftWindow(date)
	assert.Equal(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC), end)

	night := Settings{Timezone: "UTC", ShiftStart: "22:00", ShiftEnd: "06:00"}
	start, end = night.ShiftWindow(date)
	assert.Equal(t, time.Date(2025, 1, 6, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 7, 6, 0, 0, 0, time.UTC), end)
}

func TestLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, Settings{Timezone: "Mars/Olympus"}.Location())
}

func TestIsWorkingDay(t *testing.T) {
	s := Settings{WeeklyOffDays: []time.Weekday{time.Sunday}}
	assert.False(t, s.IsWorkingDay(time.Sunday))
	assert.True(t, s.IsWorkingDay(time.Saturday))
}

func TestUpdateSettingsRequest_Validate(t *testing.T) {
	bad := "25:00"
	tz := "Nowhere/City"
	minH, maxH := 9.0, 4.0
	req := UpdateSettingsRequest{ShiftStart: &bad, Timezone: &tz, MinWorkingHours: &minH, MaxWorkingHours: &maxH, WeeklyOffDays: []int{7}}
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shift_start")
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "min_working_hours")
	assert.Contains(t, err.Error(), "weekly_off_days")

	good := "08:30"
	ok := UpdateSettingsRequest{ShiftStart: &good, WeeklyOffDays: []int{0, 6}}
	require.NoError(t, ok.Validate())
	applied := ok.Apply(Settings{ShiftStart: "09:00"})
	assert.Equal(t, "08:30", applied.ShiftStart)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, applied.WeeklyOffDays)
}
