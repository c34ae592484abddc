// internal/domain/models/geo.go
package models

// GeoPoint is a GeoJSON Point as stored by MongoDB 2dsphere indexes.
// Coordinates are [longitude, latitude] per the GeoJSON spec.
type GeoPoint struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint builds a GeoPoint from a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Latitude returns the point's latitude.
func (p GeoPoint) Latitude() float64 { return p.Coordinates[1] }

// Longitude returns the point's longitude.
func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
