// Package chart composes station observations into plotly figures.
package chart

import (
	"encoding/json"
	"math"
	"strconv"
)

// Figure is a plotly figure: traces plus layout, serialized as plotly.js expects.
type Figure struct {
	Data   []*Trace `json:"data"`
	Layout Layout   `json:"layout"`
}

// Values is a numeric series; NaN serializes as null so plotly leaves a gap.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, len(v)*6+2)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'f', -1, 64)
	}
	return append(buf, ']'), nil
}

// Trace is one scatter or bar series.
type Trace struct {
	Type       string   `json:"type"`
	Name       string   `json:"name"`
	X          []string `json:"x"`
	Y          Values   `json:"y"`
	Text       []string `json:"text,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Fill       string   `json:"fill,omitempty"`
	FillColor  string   `json:"fillcolor,omitempty"`
	Line       *Line    `json:"line,omitempty"`
	Marker     *Marker  `json:"marker,omitempty"`
	ShowLegend *bool    `json:"showlegend,omitempty"`
	XAxis      string   `json:"xaxis"`
	YAxis      string   `json:"yaxis"`

	band bool
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Dash  string  `json:"dash,omitempty"`
	Width float64 `json:"width,omitempty"`
}

type Marker struct {
	Color string `json:"color,omitempty"`
}

// Axis covers the x and y axis attributes the dashboard sets.
type Axis struct {
	Title          *Title    `json:"title,omitempty"`
	Domain         []float64 `json:"domain,omitempty"`
	Anchor         string    `json:"anchor,omitempty"`
	Overlaying     string    `json:"overlaying,omitempty"`
	Side           string    `json:"side,omitempty"`
	Matches        string    `json:"matches,omitempty"`
	ShowTickLabels *bool     `json:"showticklabels,omitempty"`
	ShowGrid       *bool     `json:"showgrid,omitempty"`
	FixedRange     bool      `json:"fixedrange,omitempty"`
	Range          []any     `json:"range,omitempty"`
	TickMode       string    `json:"tickmode,omitempty"`
	TickVals       []float64 `json:"tickvals,omitempty"`
	TickText       []string  `json:"ticktext,omitempty"`
	TickFormat     string    `json:"tickformat,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

// Shape is a layout shape; only lines are drawn.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   string  `json:"x0"`
	X1   string  `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

type Legend struct {
	Orientation string  `json:"orientation"`
	Y           float64 `json:"y"`
}

type Margin struct {
	L   int `json:"l"`
	R   int `json:"r"`
	B   int `json:"b"`
	T   int `json:"t"`
	Pad int `json:"pad"`
}

// Layout holds global layout plus the per-subplot axes, keyed by plotly axis
// name ("xaxis", "xaxis2", "yaxis3", ...).
type Layout struct {
	Height     int
	AutoSize   bool
	HoverMode  string
	ShowLegend bool
	Legend     Legend
	Margin     Margin
	Shapes     []Shape
	Axes       map[string]*Axis
}

func (l Layout) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Axes)+7)
	for name, axis := range l.Axes {
		out[name] = axis
	}
	out["height"] = l.Height
	out["autosize"] = l.AutoSize
	out["hovermode"] = l.HoverMode
	out["showlegend"] = l.ShowLegend
	out["legend"] = l.Legend
	out["margin"] = l.Margin
	if len(l.Shapes) > 0 {
		out["shapes"] = l.Shapes
	}
	return json.Marshal(out)
}

func boolPtr(b bool) *bool {
	return &b
}
