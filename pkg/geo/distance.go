package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lon float64 `json:"lon" bson:"lon"`
}

// DistanceKm returns the haversine distance between two coordinates in kilometers.
// Inputs are not range checked.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Between is DistanceKm for two points.
func Between(a, b Point) float64 {
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// ValidLatitude reports whether lat lies in [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90 && !math.IsNaN(lat)
}

// ValidLongitude reports whether lon lies in [-180, 180].
func ValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180 && !math.IsNaN(lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
