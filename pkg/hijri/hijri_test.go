package hijri

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromTimeKnownDates(t *testing.T) {
	cases := []struct {
		gregorian time.Time
		want      Date
	}{
		// 1 Muharram 1420 AH.
		{time.Date(1999, time.April, 17, 0, 0, 0, 0, time.UTC), Date{Year: 1420, Month: 1, Day: 1}},
		// Millennium day fell in Ramadan 1420.
		{time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), Date{Year: 1420, Month: 9, Day: 24}},
		{time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC), Date{Year: 1448, Month: 3, Day: 18}},
	}

	for _, tc := range cases {
		got := FromTime(tc.gregorian)
		require.Equal(t, tc.want, got, "gregorian %s", tc.gregorian.Format("2006-01-02"))
	}
}

func TestFromTimeYearBoundary(t *testing.T) {
	// The civil Hijri new year is deterministic: the day before 1 Muharram 1420
	// must still be in 1419.
	before := FromTime(time.Date(1999, time.April, 16, 0, 0, 0, 0, time.UTC))
	after := FromTime(time.Date(1999, time.April, 17, 0, 0, 0, 0, time.UTC))
	require.Equal(t, 1419, before.Year)
	require.Equal(t, 12, before.Month)
	require.Equal(t, 1420, after.Year)
}

func TestFromTimeMonotonicYears(t *testing.T) {
	prev := FromTime(time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)).Year
	for year := 1991; year <= 2040; year++ {
		got := FromTime(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)).Year
		require.GreaterOrEqual(t, got, prev)
		require.LessOrEqual(t, got-prev, 2)
		prev = got
	}
}

func TestRomanMonth(t *testing.T) {
	require.Equal(t, "I", RomanMonth(time.January))
	require.Equal(t, "IX", RomanMonth(time.September))
	require.Equal(t, "XII", RomanMonth(time.December))
	require.Equal(t, "", RomanMonth(time.Month(13)))
}
