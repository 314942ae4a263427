package recurrence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name  string
		start string
		freq  Frequency
		today string
		want  string
	}{
		{"monthly_31st_into_leap_february", "2024-01-31", Monthly, "2024-02-01", "2024-02-29"},
		{"monthly_31st_into_common_february", "2023-01-31", Monthly, "2023-02-01", "2023-02-28"},
		{"monthly_anchor_restored_after_short_month", "2024-01-31", Monthly, "2024-02-29", "2024-03-31"},
		{"monthly_31st_into_30_day_month", "2024-03-31", Monthly, "2024-04-15", "2024-04-30"},
		{"monthly_year_rollover", "2024-12-15", Monthly, "2024-12-15", "2025-01-15"},
		{"monthly_many_periods", "2023-05-10", Monthly, "2024-02-20", "2024-03-10"},
		{"start_in_future_returned_unchanged", "2099-01-01", Daily, "2024-06-01", "2099-01-01"},
		{"daily_due_today_moves_to_tomorrow", "2024-06-01", Daily, "2024-06-01", "2024-06-02"},
		{"daily_in_past", "2024-05-01", Daily, "2024-06-10", "2024-06-11"},
		{"weekly_on_the_boundary", "2024-06-01", Weekly, "2024-06-08", "2024-06-15"},
		{"weekly_mid_period", "2024-06-01", Weekly, "2024-06-10", "2024-06-15"},
		{"weekly_leap_day_crossing", "2024-02-22", Weekly, "2024-02-28", "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(MustParseDate(tt.start), tt.freq, MustParseDate(tt.today))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNext_AlwaysAfterToday(t *testing.T) {
	start := MustParseDate("2023-01-31")
	for _, freq := range []Frequency{Daily, Weekly, Monthly} {
		for day := 0; day < 400; day += 13 {
			today := start.AddDays(day)
			got, err := Next(start, freq, today)
			require.NoError(t, err)
			assert.True(t, got.After(today), "%s: next %s not after %s", freq, got, today)
		}
	}
}

func TestNext_UnknownFrequency(t *testing.T) {
	_, err := Next(MustParseDate("2024-01-01"), Frequency("yearly"), MustParseDate("2024-01-02"))
	assert.ErrorIs(t, err, ErrUnknownFrequency)
	assert.False(t, Frequency("yearly").IsValid())
	assert.True(t, Monthly.IsValid())
}

func TestSkip(t *testing.T) {
	got, err := Skip(MustParseDate("2024-02-29"), MustParseDate("2024-01-31"), Monthly)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-31", got.String())

	got, err = Skip(MustParseDate("2024-06-15"), MustParseDate("2024-06-01"), Weekly)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-22", got.String())
}

func TestToday_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 3, 1, 5, 0, 0, 0, loc) // 2024-02-29 19:00 UTC
	assert.Equal(t, "2024-02-29", Today(now).String())
}

func TestDate_JSONAndSQL(t *testing.T) {
	d := MustParseDate("2024-07-04")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-04"`, string(data))

	var decoded Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-07-04T15:30:00Z"`), &decoded))
	assert.True(t, decoded.Equal(d))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", v)

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2024-07-04")))
	assert.True(t, scanned.Equal(d))

	require.NoError(t, scanned.Scan(time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)))
	assert.True(t, scanned.Equal(d))

	assert.Error(t, scanned.Scan(42))
	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}

func TestDate_UnmarshalKeepsWrittenDay(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T05:00:00+10:00"`), &d))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"2024-01-31T20:00:00-05:00"`), &d))
	assert.Equal(t, "2024-01-31", d.String())

	// The schedule stays anchored on the 31st.
	next, err := Next(d, Monthly, MustParseDate("2024-02-10"))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", next.String())
}
