package deck

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voalab/voacap-apps/internal/maidenhead"
)

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthName returns the three-letter name for month 1..12.
func MonthName(month int) string { return monthNames[month-1] }

// Deck is one voacapl area run: a month of a year at one frequency,
// covering a contiguous block of UTC hours.
type Deck struct {
	Config *Config
	Year   int
	Month  int
	SSN    int
	Hours  []int
	Freq   string
}

// HoursBlock returns the wrapped hour sequence starting at startTime.
func HoursBlock(startTime, timeRange int) []int {
	hours := make([]int, timeRange)
	for i := 0; i < timeRange; i++ {
		hours[i] = (startTime + i) % 24
	}
	return hours
}

// Build renders the fixed-width deck card text.
func (d *Deck) Build() string {
	cfg := d.Config
	txName := maidenhead.FromLatLon(cfg.TxLat, cfg.TxLon, 3)
	tLat := fmt.Sprintf("%6.2f", cfg.TxLat)
	tLon := fmt.Sprintf("%7.2f", cfg.TxLon)
	txAnt, rxAnt := cfg.AntennasFor(d.Freq)
	n := len(d.Hours)

	return strings.Join([]string{
		"Model    :VOACAP",
		"Colors   :Black    :Blue     :Ignore   :Ignore   :Red      :Black with shading",
		"Cities   :Receive.cty",
		"Nparms   :    1",
		"Parameter:REL      0",
		fmt.Sprintf("Transmit : %s   %s   %-20s %s", tLat, tLon, txName, cfg.PathFlag),
		fmt.Sprintf("Pcenter  : %s   %s   %-20s", tLat, tLon, txName),
		"Area     :    -180.0     180.0     -90.0      90.0",
		fmt.Sprintf("Gridsize :  %3d    1", cfg.GridSize),
		fmt.Sprintf("Method   :   %d", cfg.Method),
		"Coeffs   :CCIR",
		"Months   :" + repeatFloat(float64(d.Month), n, 7, 2),
		"Ssns     :" + repeatInt(d.SSN, n, 7),
		"Hours    :" + joinInts(d.Hours, 7),
		"Freqs    :" + repeatString(d.Freq, n, 7),
		fmt.Sprintf("System   :  %3d     %.2f   90   %2d     3.000     0.100", cfg.Noise, cfg.MinToa, cfg.Mode),
		fmt.Sprintf("Fprob    : 1.00 1.00 1.00 %.2f", cfg.Es),
		fmt.Sprintf("Rec Ants :[voaant/%-14s]  gain=   0.0   0.0", rxAnt),
		fmt.Sprintf("Tx Ants  :[voaant/%-14s]  0.000  -1.0   %8.4f", txAnt, cfg.Power),
	}, "\n")
}

// FileName returns the canonical deck file name, cap_<freq>.voa with
// the frequency zero-padded to 6.3 format.
func (d *Deck) FileName() string {
	fv, _ := strconv.ParseFloat(d.Freq, 64)
	return fmt.Sprintf("cap_%06.3f.voa", fv)
}

// RunDir returns the output partition for this deck under root:
// <root>/<year>/<Mon>/<freq>.
func (d *Deck) RunDir(root string) string {
	return filepath.Join(root, strconv.Itoa(d.Year), MonthName(d.Month), d.Freq)
}

// Write creates the run directory and writes the deck atomically via
// a temp file and rename. It returns the final deck path.
func (d *Deck) Write(root string) (string, error) {
	runDir := d.RunDir(root)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir %s: %w", runDir, err)
	}

	voaPath := filepath.Join(runDir, d.FileName())
	tmp := voaPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(d.Build()+"\n"), 0o644); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write deck %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, voaPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("move deck into place %s: %w", voaPath, err)
	}
	return voaPath, nil
}

func repeatFloat(v float64, count, width, prec int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "%*.*f", width, prec, v)
	}
	return b.String()
}

func repeatInt(v, count, width int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "%*d", width, v)
	}
	return b.String()
}

func repeatString(s string, count, width int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "%*s", width, s)
	}
	return b.String()
}

func joinInts(vals []int, width int) string {
	var b strings.Builder
	for _, v := range vals {
		fmt.Fprintf(&b, "%*d", width, v)
	}
	return b.String()
}
