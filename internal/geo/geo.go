// apps/go-server/internal/geo/geo.go
//
// Great-circle distance math for the "warm/cold" team proximity signal.
// Pure functions only; inputs are trusted to be valid degrees.

package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// kmPerMile converts kilometers to statute miles.
const kmPerMile = 1.609344

// Distance returns the haversine (great-circle) distance in kilometers
// between two latitude/longitude points given in degrees.
//
// Properties: Distance(a, b) == Distance(b, a); Distance(a, a) == 0
// up to floating-point rounding. Always >= 0.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// ToMiles converts a kilometer distance to miles.
func ToMiles(km float64) float64 {
	return km / kmPerMile
}

// radians converts degrees to radians.
func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
