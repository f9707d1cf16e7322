// Package geo holds the distance math shared by the proximity gate and the
// EduStop radius search.
package geo

import (
	"fmt"
	"math"

	"edustop-service/internal/domain"
)

// MetersPerDegree is the length of one degree of latitude.
const MetersPerDegree = 111_000.0

// Distance returns the equirectangular distance in meters between a and b.
// Longitude is scaled by the cosine of the mean latitude so the result does
// not depend on argument order.
func Distance(a, b domain.Coordinate) float64 {
	meanLat := (a.Latitude + b.Latitude) / 2 * math.Pi / 180
	dx := (b.Longitude - a.Longitude) * math.Cos(meanLat) * MetersPerDegree
	dy := (b.Latitude - a.Latitude) * MetersPerDegree
	return math.Sqrt(dx*dx + dy*dy)
}

// Validate checks that c is a real coordinate.
func Validate(c domain.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		c.Latitude < -90 || c.Latitude > 90 ||
		c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: (%v, %v)", domain.ErrInvalidCoordinates, c.Latitude, c.Longitude)
	}
	return nil
}

// Gate accepts callers within Radius meters of a target.
type Gate struct {
	Radius float64
}

// NewGate returns a gate with the given threshold in meters.
func NewGate(radiusMeters float64) Gate {
	return Gate{Radius: radiusMeters}
}

// Check returns domain.ErrTooFar when caller is farther than the threshold
// from target.
func (g Gate) Check(caller, target domain.Coordinate) error {
	if err := Validate(caller); err != nil {
		return err
	}
	d := Distance(caller, target)
	if d > g.Radius {
		return fmt.Errorf("%w: %.0fm > %.0fm", domain.ErrTooFar, d, g.Radius)
	}
	return nil
}
