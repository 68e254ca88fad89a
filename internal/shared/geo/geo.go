package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point is a captured location. Label is best-effort display text.
type Point struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

func (p Point) SameLocation(o Point) bool {
	return p.Lat == o.Lat && p.Lng == o.Lng
}

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLng*sinLng

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

// CoordinateLabel is the label used when no place name is available.
func CoordinateLabel(lat, lng float64) string {
	return fmt.Sprintf("Location (%.4f, %.4f)", lat, lng)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
