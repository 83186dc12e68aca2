// Package main builds VOACAP input decks and runs the external
// voacapl predictor over them, one area calculation per frequency per
// year-month, bounded by a worker pool. Prediction output lands under
// <root>/<id>/<year>/<Mon>/<freq>/ ready for voa-collect and voa-area.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/voalab/voacap-apps/internal/common"
	"github.com/voalab/voacap-apps/internal/deck"
)

var Version = "1.0.0"

var (
	iniPath   = flag.String("ini", "voacap.ini", "Prediction configuration file")
	outRoot   = flag.String("root", "", "Output root, default $VOACAP_DATA_DIR/predictions")
	yearsFlag = flag.String("years", "", "Space or comma separated years (e.g. \"2026 2027\")")
	monthsStr = flag.String("months", "", "Space or comma separated month numbers 1..12")
	startTime = flag.Int("start", 0, "Start hour UTC (0..23)")
	timeRange = flag.Int("range", 24, "Number of hours (1..24)")
	ssnPath   = flag.String("ssn-file", "", "SSN forecast file, default $VOACAP_DATA_DIR/ssn.txt")
	workers   = flag.Int("workers", 4, "Max parallel voacapl runs")
	runTime   = flag.Duration("timeout", 120*time.Second, "Per-run voacapl timeout (clamped to 10s..240s)")
)

func main() {
	log.SetFlags(log.Ltime)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voa-predict v%s - VOACAP area prediction driver\n\n", Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := common.DefaultConfig()
	if *outRoot == "" {
		*outRoot = cfg.PredictionsDir()
	}
	if *ssnPath == "" {
		*ssnPath = cfg.SSNFile()
	}

	years, err := parseIntList(*yearsFlag, 2021, 2100)
	if err != nil || len(years) == 0 {
		log.Fatalf("--years: need one or more years in 2021..2100")
	}
	months, err := parseIntList(*monthsStr, 1, 12)
	if err != nil || len(months) == 0 {
		log.Fatalf("--months: need one or more month numbers in 1..12")
	}
	if *startTime < 0 || *startTime > 23 {
		log.Fatalf("--start: hour must be in 0..23")
	}
	if *timeRange < 1 || *timeRange > 24 {
		log.Fatalf("--range: hours must be in 1..24")
	}

	predCfg, err := deck.LoadConfig(*iniPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runner := &deck.Runner{
		Binary:     cfg.VoacaplBin,
		ITSHFBCDir: cfg.ITSHFBCDir,
		Timeout:    *runTime,
	}
	if err := runner.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	predRoot := filepath.Join(*outRoot, randomID8())
	if err := os.MkdirAll(predRoot, 0o755); err != nil {
		log.Fatalf("Cannot create %s: %v", predRoot, err)
	}

	totalCalcs := len(predCfg.FList) * len(years) * len(months)
	log.Printf("voa-predict v%s", Version)
	log.Printf("Output: %s", predRoot)
	log.Printf("Total calculations: %d | Workers: %d", totalCalcs, *workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hours := deck.HoursBlock(*startTime, *timeRange)
	start := time.Now()

	doneCh := make(chan string, totalCalcs)
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		completed := 0
		for freq := range doneCh {
			completed++
			log.Printf("Progress %d/%d ... finished %s MHz", completed, totalCalcs, freq)
		}
	}()

	nw := *workers
	if nw < 1 {
		nw = 1
	}
	sem := make(chan struct{}, nw)
	var wg sync.WaitGroup
	failed := 0
	var mu sync.Mutex

runs:
	for _, year := range years {
		for _, month := range months {
			ssn, err := deck.LookupSSN(*ssnPath, year, month, time.Now())
			if err != nil {
				log.Printf("ERROR: %v; skipping %s %d", err, deck.MonthName(month), year)
				continue
			}
			log.Printf("SSN for %s %d: %d", deck.MonthName(month), year, ssn)

			for _, freq := range predCfg.FList {
				select {
				case <-ctx.Done():
					break runs
				default:
				}

				d := &deck.Deck{
					Config: predCfg,
					Year:   year,
					Month:  month,
					SSN:    ssn,
					Hours:  hours,
					Freq:   freq,
				}

				wg.Add(1)
				sem <- struct{}{}
				go func(d *deck.Deck) {
					defer wg.Done()
					defer func() { <-sem }()

					if err := runOne(ctx, runner, d, predRoot); err != nil {
						log.Printf("ERROR: %v", err)
						mu.Lock()
						failed++
						mu.Unlock()
					}
					doneCh <- d.Freq
				}(d)
			}
			wg.Wait()
		}
	}
	wg.Wait()
	close(doneCh)
	progressWG.Wait()

	log.Printf("Elapsed: %s | Failed: %d", time.Since(start).Truncate(time.Millisecond), failed)
	log.Printf("Output directory: %s", predRoot)
	if err := ctx.Err(); err != nil {
		log.Fatalf("Stopped: %v", err)
	}
}

func runOne(ctx context.Context, runner *deck.Runner, d *deck.Deck, predRoot string) error {
	voaPath, err := d.Write(predRoot)
	if err != nil {
		return err
	}
	return runner.Run(ctx, voaPath)
}

func parseIntList(raw string, min, max int) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ','
	})
	seen := map[int]bool{}
	var out []int
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		if v < min || v > max {
			return nil, fmt.Errorf("%d outside %d..%d", v, min, max)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out, nil
}

// randomID8 returns 8 hex chars naming one prediction run.
func randomID8() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b)
}
