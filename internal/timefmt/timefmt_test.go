package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFormatter(t *testing.T, zone string) *Formatter {
	t.Helper()
	f, err := New(zone)
	require.NoError(t, err)
	return f
}

func TestFormatSameDay(t *testing.T) {
	f := mustFormatter(t, "UTC")

	now := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	rec := time.Date(2025, 3, 10, 9, 4, 5, 0, time.UTC)

	assert.Equal(t, "Today, 09:04:05", f.Format(rec, now))
}

func TestFormatYesterday(t *testing.T) {
	f := mustFormatter(t, "UTC")

	now := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	rec := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)

	assert.Equal(t, "Yesterday, 23:59:59", f.Format(rec, now))
}

func TestFormatOlderShowsDate(t *testing.T) {
	f := mustFormatter(t, "UTC")

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := time.Date(2025, 3, 8, 7, 15, 0, 0, time.UTC)

	assert.Equal(t, "08 Mar, 07:15:00", f.Format(rec, now))
}

func TestFormatConvertsToConfiguredZone(t *testing.T) {
	f := mustFormatter(t, "Asia/Kolkata")

	// 20:00 UTC on the 9th is 01:30 on the 10th in Kolkata (+05:30), so a
	// record written then reads as Today relative to a Kolkata morning.
	now := time.Date(2025, 3, 10, 4, 30, 0, 0, time.UTC)
	rec := time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "Today, 01:30:00", f.Format(rec, now))
}

func TestFormatMonthBoundary(t *testing.T) {
	f := mustFormatter(t, "UTC")

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := time.Date(2025, 2, 28, 18, 45, 30, 0, time.UTC)

	assert.Equal(t, "Yesterday, 18:45:30", f.Format(rec, now))
}

func TestNewRejectsUnknownZone(t *testing.T) {
	_, err := New("Not/AZone")
	require.Error(t, err)
}
