package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAngle(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1230000W", -123},
		{"0370000N", 37},
		{"370000N", 37},
		{"370600N", 37.1},
		{"370000.0N", 37},
		{"1223000.5E", 122.5 + 0.5/3600},
		{"0453000S", -45.5},
		{"-0370000", -37},
		{"-0370000W", -37},
		{"+0370000", 37},
		{" 370000N ", 37},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAngle(tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseAngle_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "N", "-", "12N", "12345678N", "37x000N", "376000N", "370060N"} {
		_, err := ParseAngle(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestFormatAngle(t *testing.T) {
	assert.Equal(t, "370600N", FormatLatitude(37.1))
	assert.Equal(t, "450000S", FormatLatitude(-45))
	assert.Equal(t, "1225400W", FormatLongitude(-122.9))
	assert.Equal(t, "0063000E", FormatLongitude(6.5))

	v, err := ParseAngle(FormatLongitude(-122.9))
	require.NoError(t, err)
	assert.InDelta(t, -122.9, v, 1e-9)
}

func TestParseAccuracy(t *testing.T) {
	assert.Equal(t, NotAvailable, parseAccuracy("ACC", "f", "NA$$"))
	assert.Equal(t, NotAvailable, parseAccuracy("ACC", "f", "N/A "))
	assert.Equal(t, NotAvailable, parseAccuracy("ACC", "f", "NA  "))
	assert.Equal(t, 30, parseAccuracy("ACC", "f", "0030"))
	assert.Equal(t, 0, parseAccuracy("ACC", "f", "zz12"))
	assert.Equal(t, 0, parseAccuracy("ACC", "f", "    "))
	assert.False(t, isNotAvailable("NAN"))
}

func TestGeoToIndex(t *testing.T) {
	assert.Equal(t, 5, GeoToIndex(37.05, 37, 360))
	assert.Equal(t, 0, GeoToIndex(37.0, 37, 360))
	assert.Equal(t, 1, GeoToIndex(37.006, 37, 360))
	assert.Equal(t, 0, GeoToIndex(36.996, 37, 360))
	assert.Equal(t, -1, GeoToIndex(36.99, 37, 360))
	assert.Equal(t, -1, GeoToIndex(37.05, 37, 0))
	assert.Equal(t, 3600, GeoToIndex(38, 37, 10))

	assert.True(t, math.IsNaN(GeoToFractionalIndex(37, 37, 0)))
	assert.InDelta(t, 2.5, GeoToFractionalIndex(37.025, 37, 360), 1e-9)
	assert.InDelta(t, 37.05, IndexToGeo(5, 37, 360), 1e-12)
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, ClampIndex(-3, 11))
	assert.Equal(t, 9, ClampIndex(10, 11))
	assert.Equal(t, 4, ClampIndex(4, 11))
	assert.Equal(t, 0, ClampIndex(5, 1))
	assert.Equal(t, 0, ClampIndex(5, 0))
}

func TestNeighbors(t *testing.T) {
	lo, hi, ok := neighbors(2.25, 11)
	require.True(t, ok)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)

	lo, hi, ok = neighbors(10.0000001, 11)
	require.True(t, ok)
	assert.Equal(t, 10, lo)
	assert.Equal(t, 10, hi)

	_, _, ok = neighbors(math.NaN(), 11)
	assert.False(t, ok)
	_, _, ok = neighbors(12.5, 11)
	assert.False(t, ok)
}

func TestParseInterpolationMode(t *testing.T) {
	m, err := ParseInterpolationMode("")
	require.NoError(t, err)
	assert.Equal(t, Bilinear, m)

	m, err = ParseInterpolationMode("Legacy")
	require.NoError(t, err)
	assert.Equal(t, LegacyCorners, m)
	assert.Equal(t, "legacy", m.String())

	_, err = ParseInterpolationMode("cubic")
	assert.Error(t, err)
}
