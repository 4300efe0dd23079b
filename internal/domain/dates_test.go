package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 2, DaysBetween(Day(2024, 1, 1), Day(2024, 1, 3)))
	assert.Equal(t, -2, DaysBetween(Day(2024, 1, 3), Day(2024, 1, 1)))
	assert.Equal(t, 1, DaysBetween(Day(2024, 2, 28), Day(2024, 2, 29)), "leap day")
	assert.Equal(t, 0, DaysBetween(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), Day(2024, 1, 1)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-06")
	require.NoError(t, err)
	assert.Equal(t, Day(2024, 1, 6), d)

	_, err = ParseDate("06/01/2024")
	assert.Error(t, err)
}

func TestSameDate(t *testing.T) {
	a := Day(2024, 1, 1)
	b := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)
	assert.True(t, SameDate(&a, &b))
	assert.True(t, SameDate(nil, nil))
	assert.False(t, SameDate(&a, nil))
}

func TestHealthFromScore_Bands(t *testing.T) {
	assert.Equal(t, HealthCritical, HealthFromScore(34.9))
	assert.Equal(t, HealthAtRisk, HealthFromScore(35))
	assert.Equal(t, HealthAtRisk, HealthFromScore(64))
	assert.Equal(t, HealthCaution, HealthFromScore(65))
	assert.Equal(t, HealthCaution, HealthFromScore(84.5))
	assert.Equal(t, HealthOnTrack, HealthFromScore(85))
}

func TestHealthStatus_AtLeast(t *testing.T) {
	assert.True(t, HealthCritical.AtLeast(HealthAtRisk))
	assert.True(t, HealthAtRisk.AtLeast(HealthAtRisk))
	assert.False(t, HealthCaution.AtLeast(HealthAtRisk))
}
