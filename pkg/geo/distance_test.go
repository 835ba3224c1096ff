package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
		delta    float64
	}{
		{"same point", Point{12.9716, 77.5946}, Point{12.9716, 77.5946}, 0, 1e-9},
		{"one degree of latitude", Point{0, 0}, Point{1, 0}, 111.195, 0.01},
		{"bangalore to chennai", Point{12.9716, 77.5946}, Point{13.0827, 80.2707}, 290.2, 1.0},
		{"antipodal", Point{0, 0}, Point{0, 180}, math.Pi * EarthRadiusKm, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a.Lat, tt.a.Lon, tt.b.Lat, tt.b.Lon)
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Point{Lat: -33.8688, Lon: 151.2093}
	b := Point{Lat: 51.5074, Lon: -0.1278}

	assert.InDelta(t, Between(a, b), Between(b, a), 1e-9)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidLatitude(-90))
	assert.True(t, ValidLatitude(90))
	assert.False(t, ValidLatitude(90.0001))
	assert.False(t, ValidLatitude(math.NaN()))

	assert.True(t, ValidLongitude(-180))
	assert.True(t, ValidLongitude(180))
	assert.False(t, ValidLongitude(-180.5))
}
