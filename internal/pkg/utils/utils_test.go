package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineDistance(t *testing.T) {
	assert.InDelta(t, 0, HaversineDistance(-6.2, 106.8, -6.2, 106.8), 0.001)
	// Roughly 111 km per degree of latitude.
	assert.InDelta(t, 111195, HaversineDistance(0, 0, 1, 0), 50)
}

func TestCivilDate(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tzdata not available")
	}
	instant := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC) // 01:30 next day in IST
	got := CivilDate(instant, kolkata)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), CivilDate(instant, time.UTC))
}

func TestDaysHelpers(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 31, DaysInMonth(2025, time.December))
	a := time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 1, 8, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysBetween(a, b))
	assert.Equal(t, -7, DaysBetween(b, a))
}

func TestRoundHours(t *testing.T) {
	assert.Equal(t, 8.33, RoundHours(8.3333))
	assert.Equal(t, 7.5, RoundHours(7.4999999))
}
