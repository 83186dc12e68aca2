package vgrid

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// reNonData matches the legend and label lines interleaved with grid
// rows; data lines never contain lower-case letters.
var reNonData = regexp.MustCompile(`[a-z]+`)

// AreaRect is the prediction coverage rectangle from the .voa deck.
type AreaRect struct {
	SWLat float64
	SWLon float64
	NELat float64
	NELon float64
}

// LatDelta returns the latitude span of the rectangle.
func (r AreaRect) LatDelta() float64 { return r.NELat - r.SWLat }

// LonDelta returns the longitude span of the rectangle.
func (r AreaRect) LonDelta() float64 { return r.NELon - r.SWLon }

// Grid is one decoded area matrix. Cells is indexed [row][col] with
// row 0 at the south edge and col 0 at the west edge; every value is
// clamped into the metric's domain.
type Grid struct {
	Metric Metric
	Size   int
	Rect   AreaRect
	Cells  [][]float64
}

// Decode folds one .vg<N> stream into an N x N grid for the given
// metric. Lines with lower-case runs are legends and skipped; cells
// addressed outside the grid are dropped without error.
func Decode(r io.Reader, m Metric, size int, rect AreaRect) (*Grid, error) {
	if !m.valid() {
		return nil, fmt.Errorf("unknown grid metric %d", int(m))
	}
	if size < 2 {
		return nil, fmt.Errorf("grid size %d too small", size)
	}

	g := &Grid{Metric: m, Size: size, Rect: rect}
	g.Cells = make([][]float64, size)
	for i := range g.Cells {
		g.Cells[i] = make([]float64, size)
	}

	min, max := m.Domain()
	first, last := m.Columns()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if reNonData.MatchString(line) || len(line) < last {
			continue
		}
		col, err := strconv.Atoi(strings.TrimSpace(line[0:3]))
		if err != nil {
			continue
		}
		row, err := strconv.Atoi(strings.TrimSpace(line[3:6]))
		if err != nil {
			continue
		}
		if row < 1 || row > size || col < 1 || col > size {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(line[first:last]), 64)
		if err != nil {
			continue
		}
		if value < min {
			value = min
		}
		if value > max {
			value = max
		}
		g.Cells[row-1][col-1] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// LatAt returns the latitude of grid row i.
func (g *Grid) LatAt(i int) float64 {
	lat := g.Rect.SWLat + float64(i)*g.Rect.LatDelta()/float64(g.Size-1)
	if lat > 90 {
		lat = 90
	}
	return lat
}

// LonAt returns the longitude of grid column j.
func (g *Grid) LonAt(j int) float64 {
	lon := g.Rect.SWLon + float64(j)*g.Rect.LonDelta()/float64(g.Size-1)
	if lon > 180 {
		lon = 180
	}
	return lon
}

// WriteMatrix emits the grid as tab-separated rows, north row first,
// for consumption by an external renderer.
func (g *Grid) WriteMatrix(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := g.Size - 1; i >= 0; i-- {
		for j, v := range g.Cells[i] {
			if j > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%g", v); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
