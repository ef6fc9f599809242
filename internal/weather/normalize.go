package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// sitePayload is the subset of a timeseries response the normalizer reads.
// Responses either nest stations under station_timeseries or carry them at the
// top level.
type sitePayload struct {
	StationTimeseries *struct {
		Station []stationPayload `json:"STATION"`
	} `json:"station_timeseries"`
	Station []stationPayload `json:"STATION"`
}

type stationPayload struct {
	Name         *string                    `json:"NAME"`
	Elevation    json.RawMessage            `json:"ELEVATION"`
	Observations map[string]json.RawMessage `json:"OBSERVATIONS"`
}

func (p sitePayload) stations() []stationPayload {
	if p.StationTimeseries != nil {
		return p.StationTimeseries.Station
	}
	return p.Station
}

// Normalize converts a raw timeseries response into station records. raw may be
// a single site object or a JSON array of site objects; stations are returned
// site by site in input order.
//
// The first malformed station aborts the whole call.
func Normalize(raw json.RawMessage) ([]StationRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, FormatErrorf("empty timeseries payload")
	}

	var sites []sitePayload
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &sites); err != nil {
			return nil, FormatErrorf("decode site list: %v", err)
		}
	} else {
		var site sitePayload
		if err := json.Unmarshal(trimmed, &site); err != nil {
			return nil, FormatErrorf("decode site: %v", err)
		}
		sites = []sitePayload{site}
	}

	var records []StationRecord
	for _, site := range sites {
		for _, st := range site.stations() {
			rec, err := parseStation(len(records), st)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// NormalizeAll flattens a batch of per-site payloads, in order.
func NormalizeAll(raws []json.RawMessage) ([]StationRecord, error) {
	var records []StationRecord
	for _, raw := range raws {
		recs, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func parseStation(idx int, st stationPayload) (StationRecord, error) {
	if st.Name == nil {
		return StationRecord{}, malformedf(idx, "missing NAME")
	}
	elevation, err := parseElevation(st.Elevation)
	if err != nil {
		return StationRecord{}, malformedf(idx, "ELEVATION: %v", err)
	}
	obs, err := parseObservations(st.Observations)
	if err != nil {
		return StationRecord{}, malformedf(idx, "%v", err)
	}
	return StationRecord{
		Name:         *st.Name,
		Elevation:    elevation,
		Observations: obs,
	}, nil
}

func parseElevation(raw json.RawMessage) (int, error) {
	if isNull(raw) {
		return 0, fmt.Errorf("missing")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return v, nil
}

func parseObservations(raw map[string]json.RawMessage) (Observations, error) {
	columns := make(map[string][]json.RawMessage, len(raw))
	rows := 0
	for name, values := range raw {
		var col []json.RawMessage
		if err := json.Unmarshal(values, &col); err != nil {
			return Observations{}, fmt.Errorf("OBSERVATIONS.%s is not an array", name)
		}
		columns[name] = col
		if len(col) > rows {
			rows = len(col)
		}
	}
	if rows == 0 {
		return Observations{}, nil
	}

	stamps, ok := columns[ColumnDateTime]
	if !ok {
		return Observations{}, fmt.Errorf("observations without %s", ColumnDateTime)
	}

	times := make([]time.Time, len(stamps))
	for i, rawStamp := range stamps {
		t, err := parseTimestamp(rawStamp)
		if err != nil {
			return Observations{}, fmt.Errorf("%s[%d]: %v", ColumnDateTime, i, err)
		}
		times[i] = t
	}

	values := make(map[string][]float64, len(columns)-1)
	for name, col := range columns {
		if name == ColumnDateTime {
			continue
		}
		if len(col) != len(times) {
			return Observations{}, fmt.Errorf("column %s has %d values, want %d", name, len(col), len(times))
		}
		parsed := make([]float64, len(col))
		for i, v := range col {
			parsed[i] = parseValue(v)
		}
		values[name] = parsed
	}

	return NewObservations(times, values), nil
}

// isNull reports whether raw is absent or JSON null. encoding/json leaves
// non-pointer targets untouched on null, so callers must check first.
func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("not a string: %s", raw)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseValue reads a numeric observation. Null and non-numeric values are NaN.
func parseValue(raw json.RawMessage) float64 {
	if isNull(raw) {
		return math.NaN()
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v
		}
	}
	return math.NaN()
}
