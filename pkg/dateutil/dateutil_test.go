package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestAge tests age calculation at specific dates
func TestAge(t *testing.T) {
	tests := []struct {
		name        string
		birthDate   time.Time
		atDate      time.Time
		expectedAge int
	}{
		{"Before birthday", date(1990, 6, 15), date(2024, 6, 14), 33},
		{"On birthday", date(1990, 6, 15), date(2024, 6, 15), 34},
		{"After birthday", date(1990, 6, 15), date(2024, 12, 31), 34},
		{"Leap day birth, Feb 28", date(2004, 2, 29), date(2023, 2, 28), 18},
		{"Leap day birth, Mar 1", date(2004, 2, 29), date(2023, 3, 1), 19},
		{"Newborn", date(2024, 12, 1), date(2024, 12, 31), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedAge, Age(tt.birthDate, tt.atDate))
		})
	}
}

func TestAgeAtYearEnd(t *testing.T) {
	tests := []struct {
		name    string
		birth   time.Time
		taxYear int
		want    int
	}{
		// turns 19 on Dec 31 itself: counts as 19 for the whole year
		{"Birthday on Dec 31", date(2005, 12, 31), 2024, 19},
		{"Born Jan 1", date(2005, 1, 1), 2024, 19},
		{"Senior", date(1954, 7, 1), 2024, 70},
		{"Child", date(2015, 4, 1), 2024, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAtYearEnd(tt.birth, tt.taxYear))
		})
	}
}

func TestInTaxYear(t *testing.T) {
	assert.True(t, InTaxYear(date(2024, 1, 1), 2024))
	assert.True(t, InTaxYear(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), 2024))
	assert.False(t, InTaxYear(date(2025, 1, 1), 2024))
}

func TestPeriodKeys(t *testing.T) {
	tests := []struct {
		at      time.Time
		month   string
		quarter string
	}{
		{date(2024, 1, 15), "2024-01", "2024-Q1"},
		{date(2024, 3, 31), "2024-03", "2024-Q1"},
		{date(2024, 4, 1), "2024-04", "2024-Q2"},
		{date(2024, 9, 30), "2024-09", "2024-Q3"},
		{date(2024, 12, 31), "2024-12", "2024-Q4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.month, MonthKey(tt.at))
		assert.Equal(t, tt.quarter, QuarterKey(tt.at))
	}
}
