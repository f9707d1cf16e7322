package geo

import (
	"errors"
	"math"
	"testing"

	"edustop-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceIsSymmetric(t *testing.T) {
	points := []domain.Coordinate{
		{Latitude: 50, Longitude: 20},
		{Latitude: 50.0003, Longitude: 20.0003},
		{Latitude: 52.2297, Longitude: 21.0122},
		{Latitude: -33.86, Longitude: 151.2},
		{Latitude: 0, Longitude: 0},
	}
	for _, a := range points {
		for _, b := range points {
			assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9, "%v <-> %v", a, b)
		}
	}
}

func TestDistanceOfSamePointIsZero(t *testing.T) {
	p := domain.Coordinate{Latitude: 50.06, Longitude: 19.94}
	assert.Zero(t, Distance(p, p))
}

func TestGateAcceptsNearbyCaller(t *testing.T) {
	gate := NewGate(100)
	target := domain.Coordinate{Latitude: 50, Longitude: 20}
	caller := domain.Coordinate{Latitude: 50.0003, Longitude: 20.0003}

	d := Distance(caller, target)
	assert.Greater(t, d, 30.0)
	assert.Less(t, d, 50.0)
	require.NoError(t, gate.Check(caller, target))
}

func TestGateRejectsFarCaller(t *testing.T) {
	gate := NewGate(100)
	target := domain.Coordinate{Latitude: 50, Longitude: 20}
	caller := domain.Coordinate{Latitude: 50.01, Longitude: 20.01}

	assert.Greater(t, Distance(caller, target), 1000.0)
	err := gate.Check(caller, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTooFar))
}

func TestGateAcceptsExactlyAtThreshold(t *testing.T) {
	target := domain.Coordinate{Latitude: 0, Longitude: 0}
	caller := domain.Coordinate{Latitude: 100 / MetersPerDegree, Longitude: 0}
	gate := NewGate(Distance(caller, target))
	assert.NoError(t, gate.Check(caller, target))
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []domain.Coordinate{
		{Latitude: 91, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 181},
		{Latitude: 0, Longitude: -181},
		{Latitude: math.NaN(), Longitude: 0},
	}
	for _, c := range cases {
		err := Validate(c)
		assert.ErrorIs(t, err, domain.ErrInvalidCoordinates, "%v", c)
	}
	assert.NoError(t, Validate(domain.Coordinate{Latitude: 90, Longitude: -180}))
}
