package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters_Symmetry(t *testing.T) {
	lat1, lon1 := 28.6298810, 76.9560120
	lat2, lon2 := 28.6312000, 76.9581000

	d1, err := DistanceMeters(lat1, lon1, lat2, lon2)
	require.NoError(t, err)
	d2, err := DistanceMeters(lat2, lon2, lat1, lon1)
	require.NoError(t, err)

	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistanceMeters_ZeroForSamePoint(t *testing.T) {
	d, err := DistanceMeters(28.6298810, 76.9560120, 28.6298810, 76.9560120)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestDistanceMeters_KnownDistance(t *testing.T) {
	// One degree of latitude on the spherical model is R * pi/180.
	d, err := DistanceMeters(0, 0, 1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 111194.93, d, 0.01)
}

func TestDistanceMeters_RejectsNonFiniteInput(t *testing.T) {
	cases := []struct {
		name string
		lat  float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DistanceMeters(tc.lat, 0, 0, 0)
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
		})
	}
}

func TestWithinRange_BoundaryIsInclusive(t *testing.T) {
	assert.True(t, WithinRange(199.99, 200))
	assert.True(t, WithinRange(200, 200))
	assert.False(t, WithinRange(200.01, 200))
}
