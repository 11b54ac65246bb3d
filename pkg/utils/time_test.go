package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	utilsTime := Now()
	standardTime := time.Now().UTC()

	assert.WithinDuration(t, standardTime, utilsTime, 10*time.Millisecond)
	assert.Equal(t, time.UTC, utilsTime.Location())
}

func TestISOWithOffset(t *testing.T) {
	ref := time.Date(2026, 2, 3, 21, 45, 12, 0, time.UTC)

	tests := []struct {
		name     string
		location string
		expected string
	}{
		{
			name:     "utc",
			location: "UTC",
			expected: "2026-02-03T21:45:12+00:00",
		},
		{
			name:     "pacific standard time",
			location: "America/Los_Angeles",
			expected: "2026-02-03T13:45:12-08:00",
		},
		{
			name:     "eastern standard time",
			location: "America/New_York",
			expected: "2026-02-03T16:45:12-05:00",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc, err := time.LoadLocation(tc.location)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ISOWithOffset(ref, loc))
		})
	}
}

func TestISOWithOffsetNilLocation(t *testing.T) {
	ref := time.Date(2026, 2, 3, 21, 45, 12, 0, time.UTC)
	assert.Equal(t, "2026-02-03T21:45:12+00:00", ISOWithOffset(ref, nil))
}

func TestLoadLocationOrUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocationOrUTC(""))
	assert.Equal(t, time.UTC, LoadLocationOrUTC("Not/AZone"))

	loc := LoadLocationOrUTC("America/Los_Angeles")
	assert.Equal(t, "America/Los_Angeles", loc.String())
}
