package units

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDollarsToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"10.00", 1000},
		{"-25.50", -2550},
		{"-42.50", -4250},
		{"150", 15000},
		{" 12.3 ", 1230},
		{"0.125", 13},
		{"-0.125", -12},
		{"1e2", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DollarsToCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDollarsToCents_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "12.3xyz", "NaN", "Inf", "-Infinity", "$5",
		"1_000", "0x1p4", "-0X1P4", "1e400",
		"92233720368547758.07", "92233720368547758.08", "-92233720368547758.09"} {
		t.Run(in, func(t *testing.T) {
			_, err := DollarsToCents(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidAmount))
		})
	}
}

func TestDollarsToCents_NearInt64Limit(t *testing.T) {
	got, err := DollarsToCents("90000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(9_000_000_000_000_000_000), got)

	got, err = DollarsToCents("-90000000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(-9_000_000_000_000_000_000), got)
}

func TestCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, -1, 99, -4250, 123456789, -100} {
		got, err := DollarsToCents(FormatCents(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}

func TestCentsToDollars(t *testing.T) {
	v := int64(-4250)
	small := int64(-5)
	assert.Equal(t, "0.00", CentsToDollars(nil))
	assert.Equal(t, "-42.50", CentsToDollars(&v))
	assert.Equal(t, "-0.05", CentsToDollars(&small))
	assert.Equal(t, "1234.05", FormatCents(123405))
}

func TestWholeDollars(t *testing.T) {
	assert.Equal(t, int64(0), WholeDollars(0))
	assert.Equal(t, int64(2), WholeDollars(150))
	assert.Equal(t, int64(-1), WholeDollars(-150))
	assert.Equal(t, int64(-43), WholeDollars(-4251))
	assert.Equal(t, int64(12), WholeDollars(1230))
}

func TestEndFromMinutes(t *testing.T) {
	start := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)

	end, err := EndFromMinutes(start, "125")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 22, 5, 0, 0, time.UTC), end)

	end, err = EndFromMinutes(start, "0")
	require.NoError(t, err)
	assert.True(t, end.Equal(start))

	for _, bad := range []string{"-1", "12.5", "abc", ""} {
		_, err := EndFromMinutes(start, bad)
		assert.ErrorIs(t, err, ErrInvalidMinutes, bad)
	}
}

func TestElapsedLabel(t *testing.T) {
	start := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := start.Add(d)
		return &v
	}

	assert.Equal(t, "In progress", ElapsedLabel(start, nil))
	assert.Equal(t, "In progress", ElapsedLabel(time.Time{}, nil))
	assert.Equal(t, "0m", ElapsedLabel(start, at(0)))
	assert.Equal(t, "2m", ElapsedLabel(start, at(90*time.Second)))
	assert.Equal(t, "1m", ElapsedLabel(start, at(89*time.Second)))
	assert.Equal(t, "125m", ElapsedLabel(start, at(125*time.Minute)))
	assert.Equal(t, "0m", ElapsedLabel(start, at(-10*time.Minute)))
}

func TestParseLocalDateTime(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)

	got, err := ParseLocalDateTime("2024-01-01T20:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC), got.UTC())
	assert.Equal(t, "2024-01-01T20:00", FormatLocalDateTime(got, loc))

	_, err = ParseLocalDateTime("yesterday", loc)
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}
