package chart

import "math"

var compassPoints = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// DegreeToDir maps a bearing in degrees to the nearest of 16 compass points.
// Halfway bearings round up; negative and >360 bearings wrap.
func DegreeToDir(deg float64) string {
	n := len(compassPoints)
	ix := int(math.Round(deg / (360.0 / float64(n))))
	return compassPoints[((ix%n)+n)%n]
}
