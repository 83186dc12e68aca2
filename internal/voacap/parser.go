package voacap

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/voalab/voacap-apps/internal/geodesy"
	"github.com/voalab/voacap-apps/internal/maidenhead"
)

// Line-format markers. The banner opens every voacapl output file; the
// footer closes the per-hour column legend; a header line carrying the
// transmitter context always ends with the sunspot tag.
const (
	bannerPrefix = "VOACAPL"
	footerMarker = "PWRCTANGLER"
	headerSuffix = "ssn"
)

// Data-line byte layout: two 3-byte index fields, two 10-byte receiver
// coordinate fields, then 24 6-byte metric columns.
const (
	rxLatStart  = 6
	rxLatEnd    = 16
	rxLonEnd    = 26
	metricWidth = 6
	dataLineLen = rxLonEnd + MetricCount*metricWidth // 170 bytes
)

// modeColumn is the index of the one textual metric column within the
// 24 metric fields.
const modeColumn = 1

// headerTokens is the exact token count expected after the "]" of a
// header line: power, takeoff angle, UTC hour, frequency, month,
// sunspot tag.
const headerTokens = 6

// HeadlessPolicy selects what to do with data lines that appear before
// any header line has established a context.
type HeadlessPolicy int

const (
	// DropHeadless rejects such lines with a parse error.
	DropHeadless HeadlessPolicy = iota
	// SentinelHeadless reproduces the historical behavior: the lines
	// are decoded against a (-1,-1) transmitter and kept.
	SentinelHeadless
)

// ParseError reports a malformed line. It is always non-fatal: the
// line contributes nothing and parsing continues.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Reason
}

// Parser is the per-file line decoder. It starts awaiting a header and
// enters a session once one is recognized; the session context is
// replaced whenever a later header line appears. A Parser must not be
// shared between goroutines.
type Parser struct {
	policy   HeadlessPolicy
	midpoint bool

	ctx   *Context
	stats ParseStats
}

// NewParser returns a parser in the awaiting-header state.
func NewParser(policy HeadlessPolicy, midpoint bool) *Parser {
	return &Parser{policy: policy, midpoint: midpoint}
}

// Stats returns the counters accumulated so far.
func (p *Parser) Stats() ParseStats {
	return p.stats
}

// Context returns the active prediction context, or nil before the
// first header line.
func (p *Parser) Context() *Context {
	return p.ctx
}

// ParseLine decodes one raw line. It returns (nil, nil) for banner,
// footer and header lines, a record for an accepted data line, and
// (nil, *ParseError) for a malformed line. Errors never abort the
// file; the caller may log them.
func (p *Parser) ParseLine(raw string) (*Record, error) {
	p.stats.LinesRead++
	line := strings.TrimRight(raw, "\r\n")

	switch {
	case strings.HasPrefix(line, bannerPrefix):
		p.stats.Ignored++
		return nil, nil
	case strings.HasSuffix(line, footerMarker):
		p.stats.Ignored++
		return nil, nil
	case strings.HasSuffix(line, headerSuffix):
		if err := p.parseHeader(line); err != nil {
			p.stats.ParseErrors++
			return nil, err
		}
		p.stats.HeaderLines++
		return nil, nil
	}

	rec, err := p.parseData(line)
	if err != nil {
		p.stats.ParseErrors++
		return nil, err
	}
	p.stats.Records++
	return rec, nil
}

// parseHeader decodes a transmitter header such as
//
//	KP03QA [1/4 wl Gud] 1.5kW -1deg 24ut 3.500MHz Oct 25ssn
//
// and replaces the session context. On any failure the previous
// context is left untouched.
func (p *Parser) parseHeader(line string) error {
	parts := strings.SplitN(line, "]", 2)
	if len(parts) != 2 {
		return &ParseError{Reason: "header line without antenna bracket"}
	}

	fields := strings.Fields(parts[1])
	if len(fields) != headerTokens {
		return &ParseError{Reason: fmt.Sprintf("header has %d tokens, want %d", len(fields), headerTokens)}
	}

	utcTok := fields[2]
	freqTok := fields[3]
	month := fields[4]
	if len(utcTok) <= 2 || len(freqTok) <= 3 {
		return &ParseError{Reason: "header hour or frequency token too short"}
	}
	utc, err := strconv.Atoi(utcTok[:len(utcTok)-2])
	if err != nil {
		return &ParseError{Reason: "header hour is not numeric: " + utcTok}
	}
	freq, err := strconv.ParseFloat(freqTok[:len(freqTok)-3], 64)
	if err != nil {
		return &ParseError{Reason: "header frequency is not numeric: " + freqTok}
	}
	if freq <= 0 {
		return &ParseError{Reason: "header frequency is not positive: " + freqTok}
	}
	if !ValidMonth(month) {
		return &ParseError{Reason: "unknown month abbreviation: " + month}
	}

	locator := strings.TrimSpace(strings.SplitN(parts[0], "[", 2)[0])
	lat, lon, err := maidenhead.ToLatLon(locator)
	if err != nil {
		return err
	}

	p.ctx = &Context{
		Tx:      geodesy.Point{Lat: lat, Lon: lon},
		UTC:     utc,
		FreqMHz: freq,
		Month:   month,
	}
	return nil
}

// parseData decodes a fixed-width receiver line against the active
// context. Blank and trailer lines fail the width check here, which is
// the expected path for them, not a fault.
func (p *Parser) parseData(line string) (*Record, error) {
	if len(line) != dataLineLen {
		return nil, &ParseError{Reason: fmt.Sprintf("data line is %d bytes, want %d", len(line), dataLineLen)}
	}

	ctx := p.ctx
	if ctx == nil {
		if p.policy == DropHeadless {
			return nil, &ParseError{Reason: "data line before any header line"}
		}
		ctx = &sentinelContext
	}

	rxLat, err := parseField(line[rxLatStart:rxLatEnd])
	if err != nil {
		return nil, &ParseError{Reason: "receiver latitude is not numeric"}
	}
	rxLon, err := parseField(line[rxLatEnd:rxLonEnd])
	if err != nil {
		return nil, &ParseError{Reason: "receiver longitude is not numeric"}
	}

	var metrics [MetricCount]float64
	var mode string
	for i := 0; i < MetricCount; i++ {
		field := line[rxLonEnd+i*metricWidth : rxLonEnd+(i+1)*metricWidth]
		if i == modeColumn {
			mode = strings.TrimSpace(field)
			continue
		}
		v, err := parseField(field)
		if err != nil {
			// voacapl occasionally overflows a column with asterisks.
			// Keep the record and void just that value.
			metrics[i] = math.NaN()
			continue
		}
		metrics[i] = v
	}

	rx := geodesy.Point{Lat: rxLat, Lon: rxLon}
	km, deg := geodesy.DistanceBearing(ctx.Tx, rx)

	rec := &Record{
		UTC:     ctx.UTC,
		Month:   ctx.Month,
		FreqMHz: ctx.FreqMHz,
		TxLat:   ctx.Tx.Lat,
		TxLon:   ctx.Tx.Lon,
		RxLat:   rxLat,
		RxLon:   rxLon,

		MUF:    metrics[0],
		Mode:   mode,
		TAngle: metrics[2],
		Delay:  metrics[3],
		VHite:  metrics[4],
		MUFDay: metrics[5],
		Loss:   metrics[6],
		DBU:    metrics[7],
		SDBW:   metrics[8],
		NDBW:   metrics[9],
		SNR:    metrics[10],
		RPwrG:  metrics[11],
		Rel:    metrics[12],
		MProb:  metrics[13],
		SProb:  metrics[14],
		TGain:  metrics[15],
		RGain:  metrics[16],
		SNRxx:  metrics[17],
		DU:     metrics[18],
		DL:     metrics[19],
		SigLw:  metrics[20],
		SigUp:  metrics[21],
		PwrCt:  metrics[22],
		RAngle: metrics[23],

		Km:  km,
		Deg: deg,
	}
	if p.midpoint {
		mid := geodesy.Midpoint(ctx.Tx, rx)
		rec.MidLat = mid.Lat
		rec.MidLon = mid.Lon
	}
	return rec, nil
}

func parseField(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ParseReader folds the parser over every line of one prediction file
// and returns the accepted records. Parse errors are counted, not
// returned; only a read failure aborts.
func ParseReader(r io.Reader, policy HeadlessPolicy, midpoint bool) ([]Record, ParseStats, error) {
	p := NewParser(policy, midpoint)
	var records []Record

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		rec, _ := p.ParseLine(sc.Text())
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if err := sc.Err(); err != nil {
		return records, p.Stats(), err
	}
	return records, p.Stats(), nil
}
