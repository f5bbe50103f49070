package geofence

import (
	"math"

	"hr-attendance-backend/config"
	"hr-attendance-backend/internal/model"
)

// metersPerDegree is the flat-earth conversion factor used for the planar
// distance approximation. Valid for a single office radius of a few km;
// not geodesically exact.
const metersPerDegree = 111000

// Validator checks coordinates against the single configured allowed region.
type Validator struct {
	center model.Point
	radius float64
}

// NewValidator builds a validator from process-wide configuration.
func NewValidator(cfg config.GeofenceConfig) *Validator {
	return &Validator{
		center: model.Point{Longitude: cfg.CenterLongitude, Latitude: cfg.CenterLatitude},
		radius: cfg.RadiusMeters,
	}
}

// IsWithin reports whether the point lies inside the configured radius.
// Never fails; an out-of-bounds point simply returns false.
func (v *Validator) IsWithin(p model.Point) bool {
	return Distance(p, v.center) <= v.radius
}

// Center returns the configured region center.
func (v *Validator) Center() model.Point {
	return v.center
}

// Distance approximates the distance in meters between two coordinate pairs
// by scaling their Euclidean distance in degrees.
func Distance(a, b model.Point) float64 {
	dLng := a.Longitude - b.Longitude
	dLat := a.Latitude - b.Latitude
	return math.Sqrt(dLng*dLng+dLat*dLat) * metersPerDegree
}
