package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		in       float64
		expected float64
	}{
		{"knots to mps", "kts", "mps", 100, 51.4444},
		{"kph to mps", "kph", "mps", 36, 10},
		{"mph to mps", "mph", "mps", 10, 4.4704},
		{"mps to kmh", "mps", "km/h", 10, 36},
		{"pascals to hPa", "Pa", "hPa", 101325, 1013.25},
		{"kPa to hPa", "kPa", "hPa", 98, 980},
		{"inHg to hPa", "inHg", "hPa", 29.92, 1013.21},
		{"nautical miles to km", "nm", "km", 10, 18.52},
		{"metres to km", "m", "km", 1500, 1.5},
		{"identity", "hPa", "mb", 980, 980},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Convert([]float64{tt.in}, tt.from, tt.to)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.InDelta(t, tt.expected, out[0], 0.01)
		})
	}
}

func TestConvert_DoesNotModifyInput(t *testing.T) {
	in := []float64{10, 20}
	out, err := Convert(in, "kts", "mps")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20}, in)
	assert.NotEqual(t, in, out)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert([]float64{1}, "furlongs", "km")
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Convert([]float64{1}, "kts", "hPa")
	require.ErrorIs(t, err, ErrUnknownUnit)
	assert.Contains(t, err.Error(), "cannot convert")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("KTS"))
	assert.NoError(t, Validate(" hPa "))
	assert.Error(t, Validate("parsecs"))
}
