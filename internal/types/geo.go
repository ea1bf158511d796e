// README: Common geographic value object shared by state, discovery and planning.
package types

import "math"

const earthRadiusKm = 6371.0

// GeoCoordinate is a latitude/longitude pair in decimal degrees.
type GeoCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the great-circle distance to other in kilometres.
func (g GeoCoordinate) DistanceKm(other GeoCoordinate) float64 {
	dLat := degreesToRadians(other.Lat - g.Lat)
	dLng := degreesToRadians(other.Lng - g.Lng)

	rLat1 := degreesToRadians(g.Lat)
	rLat2 := degreesToRadians(other.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
