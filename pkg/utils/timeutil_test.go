package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatThai(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)
	assert.Equal(t, "5 มี.ค. 2024, 09:07", FormatThai(ts))
}

func TestFormatThaiAllMonths(t *testing.T) {
	want := []string{
		"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
		"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
	}
	for i, abbr := range want {
		ts := time.Date(2025, time.Month(i+1), 28, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, "28 "+abbr+" 2025, 23:59", FormatThai(ts))
	}
}

func TestFormatThaiUsesOwnLocation(t *testing.T) {
	ts := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC).In(ICT)
	assert.Equal(t, "1 ม.ค. 2025, 03:00", FormatThai(ts))
}

func TestFormatThaiZero(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "", FormatThai(time.Time{}))
	})
}

func TestThaiMonthOutOfRange(t *testing.T) {
	assert.Equal(t, "", ThaiMonth(0))
	assert.Equal(t, "", ThaiMonth(13))
}

func TestParseISO(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-05T09:07:00Z", time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)},
		{"2024-03-05T09:07:00.123456Z", time.Date(2024, 3, 5, 9, 7, 0, 123456000, time.UTC)},
		{"2024-03-05T09:07:00", time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)},
		{"2024-03-05 09:07:00", time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)},
		{"2024-03-05T09:07", time.Date(2024, 3, 5, 9, 7, 0, 0, time.UTC)},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseISO(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseISOKeepsOffsetWallClock(t *testing.T) {
	got, err := ParseISO("2024-03-05T09:07:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, "5 มี.ค. 2024, 09:07", FormatThai(got))
}

func TestParseISOInvalid(t *testing.T) {
	for _, s := range []string{"", "   ", "yesterday", "5 มี.ค. 2024, 09:07", "2024-13-01"} {
		_, err := ParseISO(s)
		assert.ErrorIs(t, err, ErrBadTimestamp, "input %q", s)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235000001))
	assert.Equal(t, -2.5, Round2(-2.499))
	assert.Equal(t, 0.0, Round2(0.004))
}
