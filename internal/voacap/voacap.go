// Package voacap decodes raw VOACAP point-to-point prediction output
// into structured records.
//
// A prediction file interleaves transmitter header lines with
// fixed-width receiver data lines. The header establishes the context
// (transmitter position, UTC hour, frequency, month) for every data
// line that follows it, until the next header replaces it. The parser
// here is the stateful per-line decoder; the aggregator fans whole
// files out across a bounded worker pool, one sequential parser per
// file, so no context is ever shared between goroutines.
package voacap

import (
	"github.com/voalab/voacap-apps/internal/geodesy"
)

// MetricCount is the number of fixed-width metric columns on a data line.
const MetricCount = 24

// Record is one receiver point of a prediction, with the derived
// great-circle distance and bearing from the transmitter. Field order
// matches the persisted column order.
type Record struct {
	UTC     int     `ch:"utc" parquet:"utc"`
	Month   string  `ch:"month" parquet:"month"`
	FreqMHz float64 `ch:"freq" parquet:"freq"`
	TxLat   float64 `ch:"txlat" parquet:"txlat"`
	TxLon   float64 `ch:"txlon" parquet:"txlon"`
	RxLat   float64 `ch:"rxlat" parquet:"rxlat"`
	RxLon   float64 `ch:"rxlon" parquet:"rxlon"`

	MUF    float64 `ch:"muf" parquet:"muf"`
	Mode   string  `ch:"mode" parquet:"mode"` // the one textual metric column
	TAngle float64 `ch:"tangle" parquet:"tangle"`
	Delay  float64 `ch:"delay" parquet:"delay"`
	VHite  float64 `ch:"vhite" parquet:"vhite"`
	MUFDay float64 `ch:"mufday" parquet:"mufday"`
	Loss   float64 `ch:"loss" parquet:"loss"`
	DBU    float64 `ch:"dbu" parquet:"dbu"`
	SDBW   float64 `ch:"sdbw" parquet:"sdbw"`
	NDBW   float64 `ch:"ndbw" parquet:"ndbw"`
	SNR    float64 `ch:"snr" parquet:"snr"`
	RPwrG  float64 `ch:"rpwrg" parquet:"rpwrg"`
	Rel    float64 `ch:"rel" parquet:"rel"`
	MProb  float64 `ch:"mprob" parquet:"mprob"`
	SProb  float64 `ch:"sprob" parquet:"sprob"`
	TGain  float64 `ch:"tgain" parquet:"tgain"`
	RGain  float64 `ch:"rgain" parquet:"rgain"`
	SNRxx  float64 `ch:"snrxx" parquet:"snrxx"`
	DU     float64 `ch:"du" parquet:"du"`
	DL     float64 `ch:"dl" parquet:"dl"`
	SigLw  float64 `ch:"siglw" parquet:"siglw"`
	SigUp  float64 `ch:"sigup" parquet:"sigup"`
	PwrCt  float64 `ch:"pwrct" parquet:"pwrct"`
	RAngle float64 `ch:"rangle" parquet:"rangle"`

	// Path midpoint, populated only when the richer variant is enabled.
	MidLat float64 `ch:"midlat" parquet:"midlat"`
	MidLon float64 `ch:"midlon" parquet:"midlon"`

	Km  float64 `ch:"km" parquet:"km"`
	Deg float64 `ch:"deg" parquet:"deg"`
}

// Context is the transmitter state established by a header line and
// read by every data line until the next header replaces it. It is
// scoped to a single input file.
type Context struct {
	Tx      geodesy.Point
	UTC     int
	FreqMHz float64
	Month   string
}

// sentinelContext mirrors the historical fallback for data lines seen
// before any header: geodesy still runs, against (-1,-1).
var sentinelContext = Context{
	Tx:      geodesy.Point{Lat: -1, Lon: -1},
	UTC:     -1,
	FreqMHz: -1,
	Month:   "",
}

var monthAbbrevs = map[string]bool{
	"Jan": true, "Feb": true, "Mar": true, "Apr": true,
	"May": true, "Jun": true, "Jul": true, "Aug": true,
	"Sep": true, "Oct": true, "Nov": true, "Dec": true,
}

// ValidMonth reports whether s is one of the twelve month abbreviations
// VOACAP emits in header lines.
func ValidMonth(s string) bool {
	return monthAbbrevs[s]
}

// ParseStats holds counters for one parsing operation.
type ParseStats struct {
	LinesRead   int64
	HeaderLines int64
	Records     int64
	ParseErrors int64
	Ignored     int64
	FilesFailed int64
}

// Merge adds the counters from other into s.
func (s *ParseStats) Merge(other ParseStats) {
	s.LinesRead += other.LinesRead
	s.HeaderLines += other.HeaderLines
	s.Records += other.Records
	s.ParseErrors += other.ParseErrors
	s.Ignored += other.Ignored
	s.FilesFailed += other.FilesFailed
}
