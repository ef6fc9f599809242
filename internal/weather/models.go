package weather

import (
	"math"
	"sort"
	"time"
)

// Well-known observation columns.
const (
	ColumnDateTime      = "date_time"
	ColumnAirTemp       = "air_temp"
	ColumnWindSpeed     = "wind_speed"
	ColumnWindGust      = "wind_gust"
	ColumnWindSpeedMin  = "wind_speed_min"
	ColumnWindDirection = "wind_direction"
	ColumnPrecipOneHour = "precip_accum_one_hour"
	ColumnSnowDepth     = "snow_depth"
	ColumnSnowDepth24h  = "snow_depth_24h"
)

// AccessToken is the short-lived token scraped from provider pages. It is only
// good for the request that immediately follows it.
type AccessToken string

// Site is a station site listed on the provider's directory page.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SortSitesByName orders sites by display name for presentation.
func SortSitesByName(sites []Site) {
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Name < sites[j].Name
	})
}

// SiteQuery selects sites and a time window. Start and End are absolute bounds
// and either may be nil. When both are nil, Span is applied backwards from
// Reference (now when zero).
type SiteQuery struct {
	SiteIDs   []string
	Start     *time.Time
	End       *time.Time
	Span      time.Duration
	Reference time.Time
}

// StationRecord is one physical station with its observations.
type StationRecord struct {
	Name         string
	Elevation    int
	Observations Observations
}

// Observations is a columnar table indexed by ascending, unique timestamps.
// Missing values are NaN.
type Observations struct {
	Times   []time.Time
	columns map[string][]float64
	index   map[int64]int
}

// NewObservations builds a table from unordered rows. Duplicate timestamps keep
// the last row seen. Every column must be as long as times.
func NewObservations(times []time.Time, columns map[string][]float64) Observations {
	if len(times) == 0 {
		return Observations{}
	}

	last := make(map[int64]int, len(times))
	for i, t := range times {
		last[t.UnixNano()] = i
	}
	rows := make([]int, 0, len(last))
	for _, i := range last {
		rows = append(rows, i)
	}
	sort.Slice(rows, func(a, b int) bool {
		return times[rows[a]].Before(times[rows[b]])
	})

	obs := Observations{
		Times:   make([]time.Time, len(rows)),
		columns: make(map[string][]float64, len(columns)),
		index:   make(map[int64]int, len(rows)),
	}
	for pos, i := range rows {
		obs.Times[pos] = times[i].UTC()
		obs.index[times[i].UnixNano()] = pos
	}
	for name, values := range columns {
		col := make([]float64, len(rows))
		for pos, i := range rows {
			col[pos] = values[i]
		}
		obs.columns[name] = col
	}
	return obs
}

// Len returns the number of rows.
func (o Observations) Len() int {
	return len(o.Times)
}

// Empty reports whether the table has no rows.
func (o Observations) Empty() bool {
	return len(o.Times) == 0
}

// Has reports whether the column is present.
func (o Observations) Has(name string) bool {
	_, ok := o.columns[name]
	return ok
}

// Column returns the values of a column aligned with Times.
func (o Observations) Column(name string) ([]float64, bool) {
	col, ok := o.columns[name]
	return col, ok
}

// Columns returns the column names in sorted order.
func (o Observations) Columns() []string {
	names := make([]string, 0, len(o.columns))
	for name := range o.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Row returns every column's value at t.
func (o Observations) Row(t time.Time) (map[string]float64, bool) {
	pos, ok := o.index[t.UnixNano()]
	if !ok {
		return nil, false
	}
	row := make(map[string]float64, len(o.columns))
	for name, col := range o.columns {
		row[name] = col[pos]
	}
	return row, true
}

// Missing reports whether v marks an absent observation.
func Missing(v float64) bool {
	return math.IsNaN(v)
}
