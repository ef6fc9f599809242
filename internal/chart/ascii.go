package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

var terminalColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Blue,
	asciigraph.Green,
	asciigraph.Purple,
	asciigraph.Orange,
	asciigraph.Yellow,
	asciigraph.Brown,
	asciigraph.Pink,
	asciigraph.Gray,
}

// RenderText draws one terminal chart per panel from the figure's primary-axis
// line traces. Panels with nothing to draw are listed as empty.
func RenderText(fig *Figure, width, height int) string {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	var b strings.Builder
	for panel := 1; panel <= panelCount; panel++ {
		caption := fmt.Sprintf("panel %d", panel)
		if axis := fig.Layout.Axes[axisName("y", 2*panel-1)]; axis != nil && axis.Title != nil {
			caption = axis.Title.Text
		}

		var series [][]float64
		var colors []asciigraph.AnsiColor
		var names []string
		for _, t := range fig.Data {
			if t.XAxis != axisRef("x", panel) || t.YAxis != axisRef("y", 2*panel-1) || t.Mode != "lines" || t.band {
				continue
			}
			ys, ok := fillGaps(t.Y)
			if !ok {
				continue
			}
			series = append(series, ys)
			colors = append(colors, terminalColors[(len(series)-1)%len(terminalColors)])
			names = append(names, t.Name)
		}

		if len(series) == 0 {
			fmt.Fprintf(&b, "%s: no data\n\n", caption)
			continue
		}
		series = padSeries(series)
		b.WriteString(asciigraph.PlotMany(series,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Caption(caption+" ("+strings.Join(names, ", ")+")"),
			asciigraph.SeriesColors(colors...),
		))
		b.WriteString("\n\n")
	}
	return b.String()
}

// fillGaps carries the last observed value over missing points. Leading gaps
// take the first observed value. It reports false when nothing was observed.
func fillGaps(v Values) ([]float64, bool) {
	out := make([]float64, len(v))
	first := -1
	for i, f := range v {
		if !isGap(f) {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, false
	}
	last := v[first]
	for i, f := range v {
		if !isGap(f) {
			last = f
		}
		out[i] = last
	}
	return out, true
}

func padSeries(series [][]float64) [][]float64 {
	longest := 0
	for _, s := range series {
		longest = max(longest, len(s))
	}
	for i, s := range series {
		for len(s) < longest {
			s = append(s, s[len(s)-1])
		}
		series[i] = s
	}
	return series
}

func isGap(f float64) bool {
	return math.IsNaN(f)
}
