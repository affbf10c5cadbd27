package frame

import "math"

// tenthsPerDegree converts a decimal degree delta into tenths of arc seconds.
const tenthsPerDegree = 36000

// GeoToFractionalIndex converts a coordinate into an unrounded post index.
func GeoToFractionalIndex(coord, origin float64, intervalTenths int) float64 {
	if intervalTenths == 0 {
		return math.NaN()
	}
	return (coord - origin) * tenthsPerDegree / float64(intervalTenths)
}

// GeoToIndex converts a coordinate into the nearest post index. Halves round
// up, so -0.5 maps to 0 like 0.5 maps to 1.
func GeoToIndex(coord, origin float64, intervalTenths int) int {
	f := GeoToFractionalIndex(coord, origin, intervalTenths)
	if math.IsNaN(f) {
		return -1
	}
	return int(math.Floor(f + 0.5))
}

// IndexToGeo converts a post index back to a coordinate.
func IndexToGeo(index int, origin float64, intervalTenths int) float64 {
	return origin + float64(index)*float64(intervalTenths)/tenthsPerDegree
}

// ClampIndex limits i to [0, count-2], leaving room for a neighbor post.
func ClampIndex(i, count int) int {
	hi := count - 2
	if hi < 0 {
		hi = 0
	}
	return min(max(i, 0), hi)
}
