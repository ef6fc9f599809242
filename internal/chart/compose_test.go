package chart

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/nwac-weather/internal/weather"
)

func hours(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func station(name string, elevation int, times []time.Time, columns map[string][]float64) weather.StationRecord {
	return weather.StationRecord{
		Name:         name,
		Elevation:    elevation,
		Observations: weather.NewObservations(times, columns),
	}
}

func tracesOn(fig *Figure, xaxis, yaxis string) []*Trace {
	var out []*Trace
	for _, t := range fig.Data {
		if t.XAxis == xaxis && t.YAxis == yaxis {
			out = append(out, t)
		}
	}
	return out
}

func TestDegreeToDir(t *testing.T) {
	cases := []struct {
		deg  float64
		want string
	}{
		{0, "N"},
		{11, "N"},
		{11.25, "NNE"},
		{90, "E"},
		{180, "S"},
		{337.5, "NNW"},
		{348.75, "N"},
		{360, "N"},
		{-22.5, "NNW"},
		{720, "N"},
	}
	for _, c := range cases {
		if got := DegreeToDir(c.deg); got != c.want {
			t.Errorf("DegreeToDir(%v) = %q, want %q", c.deg, got, c.want)
		}
	}
}

func TestComposeSkipsStationWithoutTemperature(t *testing.T) {
	start := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	times := hours(start, 3)
	fig := Compose([]weather.StationRecord{
		station("Base", 3100, times, map[string][]float64{
			weather.ColumnAirTemp:   {30, 31, 32},
			weather.ColumnWindSpeed: {5, 6, 7},
		}),
		station("Summit", 5470, times, map[string][]float64{
			weather.ColumnWindSpeed: {10, 12, 14},
		}),
	})

	temp := tracesOn(fig, "x", "y")
	if len(temp) != 1 {
		t.Fatalf("expected 1 temperature trace, got %d", len(temp))
	}
	if temp[0].Name != "Base - 3100" {
		t.Fatalf("unexpected trace name %q", temp[0].Name)
	}

	wind := tracesOn(fig, "x3", "y5")
	if len(wind) != 2 {
		t.Fatalf("expected 2 wind traces, got %d", len(wind))
	}
	if wind[1].Name != "Summit - 5470" {
		t.Fatalf("unexpected wind trace name %q", wind[1].Name)
	}
	if temp[0].X[0] != "2024-01-02T10:00:00-0800" {
		t.Fatalf("expected pacific local time, got %q", temp[0].X[0])
	}
}

func TestComposeFreezingLineFollowsLastTemperatureStation(t *testing.T) {
	early := hours(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 4)
	late := hours(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 2)
	other := hours(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 2)

	fig := Compose([]weather.StationRecord{
		station("A", 1, early, map[string][]float64{weather.ColumnAirTemp: {1, 2, 3, 4}}),
		station("B", 2, late, map[string][]float64{weather.ColumnAirTemp: {5, 6}}),
		station("C", 3, other, map[string][]float64{weather.ColumnSnowDepth: {40, 41}}),
	})

	if len(fig.Layout.Shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(fig.Layout.Shapes))
	}
	line := fig.Layout.Shapes[0]
	want := localTimes(late)
	if line.X0 != want[0] || line.X1 != want[1] {
		t.Fatalf("expected line from %s to %s, got %s to %s", want[0], want[1], line.X0, line.X1)
	}
	if line.Y0 != 32 || line.Y1 != 32 || line.Line.Dash != "dot" {
		t.Fatalf("unexpected reference line %+v", line)
	}

	none := Compose([]weather.StationRecord{
		station("C", 3, other, map[string][]float64{weather.ColumnSnowDepth: {40, 41}}),
	})
	if len(none.Layout.Shapes) != 0 {
		t.Fatalf("expected no reference line without temperature data, got %d", len(none.Layout.Shapes))
	}
}

func TestComposeLegendDedupe(t *testing.T) {
	times := hours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2)
	cols := map[string][]float64{
		weather.ColumnAirTemp:       {30, 31},
		weather.ColumnWindSpeed:     {5, 6},
		weather.ColumnWindGust:      {9, 11},
		weather.ColumnWindSpeedMin:  {2, 3},
		weather.ColumnWindDirection: {180, 270},
	}
	fig := Compose([]weather.StationRecord{
		station("Base", 3100, times, cols),
		station("Summit", 5470, times, cols),
	})

	shown := map[string]int{}
	for _, tr := range fig.Data {
		if tr.ShowLegend == nil {
			t.Fatalf("trace %q left without a legend flag", tr.Name)
		}
		if *tr.ShowLegend {
			shown[tr.Name]++
		}
	}
	if shown["Base - 3100"] != 1 || shown["Summit - 5470"] != 1 || len(shown) != 2 {
		t.Fatalf("expected one legend entry per station, got %v", shown)
	}

	// band traces and direction markers never claim the legend
	for _, tr := range tracesOn(fig, "x3", "y6") {
		if *tr.ShowLegend {
			t.Fatalf("direction markers should be hidden from the legend")
		}
		if tr.Text[0] != "S" || tr.Text[1] != "W" {
			t.Fatalf("unexpected compass labels %v", tr.Text)
		}
	}
}

func TestComposeWindBand(t *testing.T) {
	times := hours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2)
	fig := Compose([]weather.StationRecord{
		station("Base", 3100, times, map[string][]float64{
			weather.ColumnWindSpeed:    {5, 6},
			weather.ColumnWindGust:     {9, 11},
			weather.ColumnWindSpeedMin: {2, 3},
		}),
		station("Ridge", 4000, times, map[string][]float64{
			weather.ColumnWindSpeed: {5, 6},
			weather.ColumnWindGust:  {9, 11},
		}),
	})

	wind := tracesOn(fig, "x3", "y5")
	if len(wind) != 4 {
		t.Fatalf("expected speed, gust, min for Base plus speed for Ridge, got %d traces", len(wind))
	}
	gust, low := wind[1], wind[2]
	if gust.Line.Color != "rgba(228,26,28,0)" {
		t.Fatalf("expected transparent gust line, got %q", gust.Line.Color)
	}
	if low.Fill != "tonexty" || low.FillColor != "rgba(228,26,28,0.2)" {
		t.Fatalf("unexpected band fill %q %q", low.Fill, low.FillColor)
	}
	if wind[3].Line.Color != "rgb(55,126,184)" {
		t.Fatalf("expected second palette color, got %q", wind[3].Line.Color)
	}
}

func TestComposePaletteWraps(t *testing.T) {
	times := hours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1)
	var stations []weather.StationRecord
	for i := 0; i < 10; i++ {
		stations = append(stations, station("S", i, times, map[string][]float64{weather.ColumnSnowDepth: {1}}))
	}
	fig := Compose(stations)
	snow := tracesOn(fig, "x4", "y7")
	if len(snow) != 10 {
		t.Fatalf("expected 10 snow traces, got %d", len(snow))
	}
	if snow[9].Line.Color != snow[0].Line.Color {
		t.Fatalf("expected tenth station to reuse the first color, got %q", snow[9].Line.Color)
	}
}

func TestFigureJSON(t *testing.T) {
	times := hours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 2)
	fig := Compose([]weather.StationRecord{
		station("Base", 3100, times, map[string][]float64{
			weather.ColumnAirTemp:       {math.NaN(), 31},
			weather.ColumnPrecipOneHour: {0.1, 0},
		}),
	})

	body, err := json.Marshal(fig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Data []struct {
			Type  string     `json:"type"`
			Y     []*float64 `json:"y"`
			YAxis string     `json:"yaxis"`
		} `json:"data"`
		Layout map[string]json.RawMessage `json:"layout"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Data) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(decoded.Data))
	}
	if decoded.Data[0].Y[0] != nil || *decoded.Data[0].Y[1] != 31 {
		t.Fatalf("expected missing value as null, got %s", body)
	}
	if decoded.Data[1].Type != "bar" || decoded.Data[1].YAxis != "y4" {
		t.Fatalf("expected precip bar on the secondary axis, got %+v", decoded.Data[1])
	}

	var y4 Axis
	if err := json.Unmarshal(decoded.Layout["yaxis4"], &y4); err != nil {
		t.Fatalf("yaxis4: %v", err)
	}
	if y4.Overlaying != "y3" || y4.Side != "right" || y4.Title.Text != "Precip (inch/hr)" {
		t.Fatalf("unexpected secondary axis %+v", y4)
	}

	var y1 Axis
	if err := json.Unmarshal(decoded.Layout["yaxis"], &y1); err != nil {
		t.Fatalf("yaxis: %v", err)
	}
	if y1.Domain[0] != 0.7875 || y1.Domain[1] != 1 {
		t.Fatalf("unexpected top panel domain %v", y1.Domain)
	}

	var hover string
	if err := json.Unmarshal(decoded.Layout["hovermode"], &hover); err != nil || hover != "x unified" {
		t.Fatalf("unexpected hovermode %s", decoded.Layout["hovermode"])
	}
}

func TestRenderText(t *testing.T) {
	times := hours(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 4)
	fig := Compose([]weather.StationRecord{
		station("Base", 3100, times, map[string][]float64{
			weather.ColumnAirTemp: {math.NaN(), 30, math.NaN(), 28},
		}),
	})

	out := RenderText(fig, 40, 5)
	if !strings.Contains(out, "Temperature (Base - 3100)") {
		t.Fatalf("expected temperature caption, got:\n%s", out)
	}
	if !strings.Contains(out, "Wind Speed: no data") {
		t.Fatalf("expected empty wind panel, got:\n%s", out)
	}
}

func TestFillGaps(t *testing.T) {
	got, ok := fillGaps(Values{math.NaN(), 2, math.NaN(), 4})
	if !ok {
		t.Fatalf("expected observed values")
	}
	want := []float64{2, 2, 2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fillGaps = %v, want %v", got, want)
		}
	}
	if _, ok := fillGaps(Values{math.NaN()}); ok {
		t.Fatalf("expected all-missing series to be dropped")
	}
}
