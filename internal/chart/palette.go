package chart

import "fmt"

type rgb struct{ r, g, b int }

// set1 is the ColorBrewer qualitative Set1 scale (9 classes).
var set1 = []rgb{
	{228, 26, 28},
	{55, 126, 184},
	{77, 175, 74},
	{152, 78, 163},
	{255, 127, 0},
	{255, 255, 51},
	{166, 86, 40},
	{247, 129, 191},
	{153, 153, 153},
}

// stationColor returns the palette entry for the i-th station. Past nine
// stations the palette wraps around.
func stationColor(i int) rgb {
	return set1[i%len(set1)]
}

func (c rgb) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
}

func (c rgb) alpha(a float64) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%g)", c.r, c.g, c.b, a)
}
