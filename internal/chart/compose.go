package chart

import (
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"github.com/i474232898/nwac-weather/internal/weather"
)

const (
	panelCount      = 4
	verticalSpacing = 0.05
	freezing        = 32.0
	localTimeLayout = "2006-01-02T15:04:05-0700"
	xTickFormat     = "%H:%M %a %b %d"
	figureHeight    = 700
	figureMargin    = 12
)

const (
	panelTemperature = iota + 1
	panelPrecip
	panelWind
	panelSnow
)

var pacific = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Compose lays the stations out in four stacked panels sharing the time axis:
// temperature, precipitation with 24h snow, wind, and snow depth. A station
// without a panel's required column is skipped in that panel only.
func Compose(stations []weather.StationRecord) *Figure {
	c := &composer{
		fig: &Figure{Layout: newLayout()},
	}
	c.addTemperature(stations)
	c.addPrecip(stations)
	c.addWind(stations)
	c.addSnow(stations)
	dedupeLegend(c.fig.Data)
	return c.fig
}

type composer struct {
	fig *Figure
}

func (c *composer) add(panel int, secondary bool, t *Trace) {
	t.XAxis = axisRef("x", panel)
	if secondary {
		t.YAxis = axisRef("y", 2*panel)
	} else {
		t.YAxis = axisRef("y", 2*panel-1)
	}
	c.fig.Data = append(c.fig.Data, t)
}

func (c *composer) primary(panel int) *Axis {
	return c.fig.Layout.Axes[axisName("y", 2*panel-1)]
}

func (c *composer) secondary(panel int) *Axis {
	return c.fig.Layout.Axes[axisName("y", 2*panel)]
}

func (c *composer) addTemperature(stations []weather.StationRecord) {
	var x []string
	for i, s := range stations {
		if !s.Observations.Has(weather.ColumnAirTemp) {
			continue
		}
		x = localTimes(s.Observations.Times)
		c.add(panelTemperature, false, lineTrace(s, i, x, column(s.Observations, weather.ColumnAirTemp)))
	}

	if len(x) > 0 {
		c.fig.Layout.Shapes = append(c.fig.Layout.Shapes, Shape{
			Type: "line",
			XRef: axisRef("x", panelTemperature),
			YRef: axisRef("y", 2*panelTemperature-1),
			X0:   x[0],
			X1:   x[len(x)-1],
			Y0:   freezing,
			Y1:   freezing,
			Line: Line{Dash: "dot", Width: 1},
		})
	}
	c.primary(panelTemperature).Title = &Title{Text: "Temperature"}
}

func (c *composer) addPrecip(stations []weather.StationRecord) {
	for i, s := range stations {
		obs := s.Observations
		if obs.Has(weather.ColumnPrecipOneHour) {
			c.add(panelPrecip, true, &Trace{
				Type:   "bar",
				Name:   traceName(s),
				X:      localTimes(obs.Times),
				Y:      column(obs, weather.ColumnPrecipOneHour),
				Marker: &Marker{Color: stationColor(i).alpha(0.5)},
			})
		}
		if obs.Has(weather.ColumnSnowDepth24h) {
			c.add(panelPrecip, false, lineTrace(s, i, localTimes(obs.Times), column(obs, weather.ColumnSnowDepth24h)))
		}
	}

	c.fig.Layout.Axes[axisName("x", panelPrecip)].ShowGrid = boolPtr(true)

	sec := c.secondary(panelPrecip)
	sec.Title = &Title{Text: "Precip (inch/hr)"}
	sec.ShowGrid = boolPtr(false)
	sec.Range = []any{0, 0.25}

	pri := c.primary(panelPrecip)
	pri.Title = &Title{Text: "Snow Depth (24h)"}
	pri.Range = []any{0, nil}
}

func (c *composer) addWind(stations []weather.StationRecord) {
	for i, s := range stations {
		obs := s.Observations
		if !obs.Has(weather.ColumnWindSpeed) {
			continue
		}
		color := stationColor(i)
		x := localTimes(obs.Times)
		c.add(panelWind, false, lineTrace(s, i, x, column(obs, weather.ColumnWindSpeed)))

		if obs.Has(weather.ColumnWindSpeedMin) && obs.Has(weather.ColumnWindGust) {
			c.add(panelWind, false, &Trace{
				Type:       "scatter",
				Name:       traceName(s),
				X:          x,
				Y:          column(obs, weather.ColumnWindGust),
				Mode:       "lines",
				Line:       &Line{Color: color.alpha(0)},
				ShowLegend: boolPtr(false),
				band:       true,
			})
			c.add(panelWind, false, &Trace{
				Type:       "scatter",
				Name:       traceName(s),
				X:          x,
				Y:          column(obs, weather.ColumnWindSpeedMin),
				Mode:       "lines",
				Fill:       "tonexty",
				FillColor:  color.alpha(0.2),
				Line:       &Line{Color: color.alpha(0)},
				ShowLegend: boolPtr(false),
				band:       true,
			})
		}

		if obs.Has(weather.ColumnWindDirection) {
			dir := column(obs, weather.ColumnWindDirection)
			text := make([]string, len(dir))
			for j, d := range dir {
				if !weather.Missing(d) {
					text[j] = DegreeToDir(d)
				}
			}
			c.add(panelWind, true, &Trace{
				Type:       "scatter",
				Name:       traceName(s),
				X:          x,
				Y:          dir,
				Text:       text,
				Mode:       "markers",
				FillColor:  color.alpha(0.5),
				Line:       &Line{Color: color.alpha(0.8)},
				ShowLegend: boolPtr(false),
			})
		}
	}

	c.primary(panelWind).Title = &Title{Text: "Wind Speed"}

	ticks := make([]float64, 0, 9)
	labels := make([]string, 0, 9)
	for d := 0; d <= 360; d += 45 {
		ticks = append(ticks, float64(d))
		labels = append(labels, DegreeToDir(float64(d)))
	}
	sec := c.secondary(panelWind)
	sec.Title = &Title{Text: "Wind Direction"}
	sec.FixedRange = true
	sec.Range = []any{0, 360}
	sec.ShowGrid = boolPtr(false)
	sec.TickMode = "array"
	sec.TickVals = ticks
	sec.TickText = labels
}

func (c *composer) addSnow(stations []weather.StationRecord) {
	for i, s := range stations {
		if !s.Observations.Has(weather.ColumnSnowDepth) {
			continue
		}
		c.add(panelSnow, false, lineTrace(s, i, localTimes(s.Observations.Times), column(s.Observations, weather.ColumnSnowDepth)))
	}

	pri := c.primary(panelSnow)
	pri.Title = &Title{Text: "Snow Depth"}
	pri.Range = []any{0, nil}
}

// dedupeLegend gives each trace name at most one legend entry. Traces already
// hidden stay hidden and do not claim the name.
func dedupeLegend(traces []*Trace) {
	seen := make(map[string]bool)
	for _, t := range traces {
		if t.ShowLegend != nil && !*t.ShowLegend {
			continue
		}
		t.ShowLegend = boolPtr(!seen[t.Name])
		seen[t.Name] = true
	}
}

func lineTrace(s weather.StationRecord, i int, x []string, y []float64) *Trace {
	return &Trace{
		Type: "scatter",
		Name: traceName(s),
		X:    x,
		Y:    y,
		Mode: "lines",
		Line: &Line{Color: stationColor(i).String()},
	}
}

func column(obs weather.Observations, name string) []float64 {
	col, _ := obs.Column(name)
	return col
}

func traceName(s weather.StationRecord) string {
	return fmt.Sprintf("%s - %d", s.Name, s.Elevation)
}

func localTimes(times []time.Time) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = t.In(pacific).Format(localTimeLayout)
	}
	return out
}

// newLayout builds the shared-x grid: panel r owns xaxis r, primary y(2r-1)
// and secondary y(2r) overlaying it. Panel 1 is at the top.
func newLayout() Layout {
	axes := make(map[string]*Axis, panelCount*3)
	height := (1 - verticalSpacing*float64(panelCount-1)) / float64(panelCount)
	for r := 1; r <= panelCount; r++ {
		top := 1 - float64(r-1)*(height+verticalSpacing)
		bottom := math.Max(0, top-height)
		if r == panelCount {
			bottom = 0
		}
		domain := []float64{round4(bottom), round4(top)}

		x := &Axis{
			Anchor:     axisRef("y", 2*r-1),
			Domain:     []float64{0, 0.94},
			TickFormat: xTickFormat,
		}
		if r < panelCount {
			x.Matches = axisRef("x", panelCount)
			x.ShowTickLabels = boolPtr(false)
		}
		axes[axisName("x", r)] = x
		axes[axisName("y", 2*r-1)] = &Axis{Anchor: axisRef("x", r), Domain: domain}
		axes[axisName("y", 2*r)] = &Axis{
			Anchor:     axisRef("x", r),
			Overlaying: axisRef("y", 2*r-1),
			Side:       "right",
		}
	}

	return Layout{
		Height:     figureHeight,
		AutoSize:   true,
		HoverMode:  "x unified",
		ShowLegend: true,
		Legend:     Legend{Orientation: "h", Y: -0.15},
		Margin:     Margin{L: figureMargin, R: figureMargin, B: figureMargin, T: figureMargin, Pad: 4},
		Axes:       axes,
	}
}

// axisRef is the trace-side reference ("x", "y3"); axisName is the layout key
// ("xaxis", "yaxis3").
func axisRef(kind string, n int) string {
	if n == 1 {
		return kind
	}
	return fmt.Sprintf("%s%d", kind, n)
}

func axisName(kind string, n int) string {
	if n == 1 {
		return kind + "axis"
	}
	return fmt.Sprintf("%saxis%d", kind, n)
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
