// Package vgrid decodes VOACAP area-coverage grids. Each .vg<N> file
// carries one fixed-width matrix per prediction hour; the column span
// holding the value depends on which metric is being extracted.
package vgrid

import (
	"fmt"
	"strings"
)

// Metric selects which fixed-width column span of an area grid line is
// decoded. The set is closed; voacapl emits no other plottable fields.
type Metric int

const (
	MUF Metric = iota + 1
	REL
	SNR
	SNRXX
	SDBW
	SMETER
)

type metricDef struct {
	name   string
	title  string
	min    float64
	max    float64
	first  int
	last   int
	levels []float64
}

// Column offsets and value domains follow the voacapl area output
// layout and must not be changed independently of it.
var metricDefs = map[Metric]metricDef{
	MUF: {
		name: "MUF", title: "Maximum Usable Frequency (MUF)",
		min: 2, max: 30, first: 27, last: 32,
		levels: []float64{2, 4, 7, 10, 14, 18, 21, 24, 28, 30},
	},
	REL: {
		name: "REL", title: "Circuit Reliability (%)",
		min: 0, max: 1, first: 98, last: 104,
		levels: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
	},
	SNR: {
		name: "SNR", title: "Median SNR (dB/Hz)",
		min: 0, max: 100, first: 86, last: 92,
		levels: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	},
	SNRXX: {
		name: "SNRXX", title: "SNR90 (dB/Hz)",
		min: 0, max: 100, first: 128, last: 134,
		levels: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	},
	SDBW: {
		name: "SDBW", title: "Signal Power (dBW)",
		min: -160, max: -60, first: 74, last: 80,
		levels: []float64{-160, -150, -140, -130, -120, -110, -100, -90, -80, -70, -60},
	},
	SMETER: {
		name: "SMETER", title: "S-Meter",
		min: -151.18, max: -43.01, first: 74, last: 80,
		levels: []float64{-151.18, -139.13, -127.09, -115.05, -103.01, -83.01, -63.01, -43.01},
	},
}

// S-meter labels for signal power levels, derived from the table at
// http://www.voacap.com/s-meter.html.
var sMeterLabels = map[float64]string{
	-151.18: "S1", -145.15: "S2", -139.13: "S3", -133.11: "S4",
	-127.09: "S5", -121.07: "S6", -115.05: "S7", -109.03: "S8",
	-103.01: "S9", -93.01: "S9+10dB", -83.01: "S9+20dB",
	-73.01: "S9+30dB", -63.01: "S9+40dB", -53.01: "S9+50dB",
	-43.01: "S9+60dB",
}

// ParseMetric maps a user-facing name to its metric. SNR50 and SNR90
// are accepted as aliases for the median and 90% SNR grids.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "MUF":
		return MUF, nil
	case "REL":
		return REL, nil
	case "SNR", "SNR50":
		return SNR, nil
	case "SNRXX", "SNR90":
		return SNRXX, nil
	case "SDBW":
		return SDBW, nil
	case "SMETER":
		return SMETER, nil
	}
	return 0, fmt.Errorf("unknown grid metric %q", name)
}

func (m Metric) valid() bool {
	_, ok := metricDefs[m]
	return ok
}

// String returns the canonical metric name.
func (m Metric) String() string {
	if d, ok := metricDefs[m]; ok {
		return d.name
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// Title is the human-readable plot title for the metric.
func (m Metric) Title() string { return metricDefs[m].title }

// Domain returns the inclusive value range grid cells are clamped to.
func (m Metric) Domain() (min, max float64) {
	d := metricDefs[m]
	return d.min, d.max
}

// Levels returns the contour levels handed to the renderer.
func (m Metric) Levels() []float64 {
	d := metricDefs[m]
	out := make([]float64, len(d.levels))
	copy(out, d.levels)
	return out
}

// Columns returns the byte span [first, last) that holds the metric
// value on an area grid data line.
func (m Metric) Columns() (first, last int) {
	d := metricDefs[m]
	return d.first, d.last
}

// Format renders a contour level for axis labelling.
func (m Metric) Format(v float64) string {
	switch m {
	case MUF:
		return fmt.Sprintf("%2.0fMHz", v)
	case REL:
		return fmt.Sprintf("%3.0f%%", v*100)
	case SNR, SNRXX:
		return fmt.Sprintf("%3.0f dB", v)
	case SDBW:
		return fmt.Sprintf("%4.0f dBW", v)
	case SMETER:
		if label, ok := sMeterLabels[v]; ok {
			return label
		}
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%v", v)
}
