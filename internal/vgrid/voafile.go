package vgrid

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// VoaMeta is the plotting metadata read back from a .voa input deck:
// everything needed to georeference the sibling .vg<N> grids.
type VoaMeta struct {
	GridSize int
	Rect     AreaRect
	Months   []float64
	Hours    []int
	Freqs    []float64
}

// ParseVoaFile reads the keyed deck lines of a .voa file. Decks use a
// nine-character key column; the Area rectangle is stored in the order
// west lon, east lon, south lat, north lat.
func ParseVoaFile(path string) (*VoaMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta := &VoaMeta{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "Gridsize":
			fields := strings.Fields(value)
			if len(fields) < 1 {
				return nil, fmt.Errorf("%s: malformed Gridsize line", path)
			}
			meta.GridSize, err = strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("%s: Gridsize: %w", path, err)
			}
		case "Area":
			fields := strings.Fields(value)
			if len(fields) != 4 {
				return nil, fmt.Errorf("%s: Area wants 4 fields, got %d", path, len(fields))
			}
			var vals [4]float64
			for i, field := range fields {
				vals[i], err = strconv.ParseFloat(field, 64)
				if err != nil {
					return nil, fmt.Errorf("%s: Area: %w", path, err)
				}
			}
			meta.Rect = AreaRect{SWLon: vals[0], NELon: vals[1], SWLat: vals[2], NELat: vals[3]}
		case "Months":
			meta.Months, err = parseFloats(value)
			if err != nil {
				return nil, fmt.Errorf("%s: Months: %w", path, err)
			}
		case "Hours":
			var hours []float64
			hours, err = parseFloats(value)
			if err != nil {
				return nil, fmt.Errorf("%s: Hours: %w", path, err)
			}
			meta.Hours = make([]int, len(hours))
			for i, h := range hours {
				meta.Hours[i] = int(h)
			}
		case "Freqs":
			meta.Freqs, err = parseFloats(value)
			if err != nil {
				return nil, fmt.Errorf("%s: Freqs: %w", path, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if meta.GridSize < 2 {
		return nil, fmt.Errorf("%s: missing or invalid Gridsize", path)
	}
	if meta.Rect == (AreaRect{}) {
		return nil, fmt.Errorf("%s: missing Area rectangle", path)
	}
	return meta, nil
}

// UTCAt returns the UTC hour covered by variant selector n (1-based),
// matching voacapl's one .vg file per Hours entry.
func (m *VoaMeta) UTCAt(n int) (int, error) {
	if n < 1 || n > len(m.Hours) {
		return 0, fmt.Errorf("variant %d outside deck hours (have %d)", n, len(m.Hours))
	}
	return m.Hours[n-1], nil
}

func parseFloats(value string) ([]float64, error) {
	fields := strings.Fields(value)
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
