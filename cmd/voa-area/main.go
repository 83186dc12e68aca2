// Package main decodes VOACAP area-coverage grids. For every .voa
// deck under the root it pairs the sibling .vg<N> files with the
// selected metrics and either writes the decoded matrix for an
// external renderer or invokes the renderer directly, one subprocess
// per plot across a bounded worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/voalab/voacap-apps/internal/vgrid"
	"github.com/voalab/voacap-apps/internal/voacap"
)

var Version = "1.0.0"

var (
	rootPath   = flag.String("root", "", "Root of the prediction tree (year/month subfolders with .voa and .vg* files)")
	mapsFlag   = flag.String("maps", "ALL", "Comma-separated metrics: MUF,REL,SNR50,SNR90,SDBW,SMETER or ALL")
	workers    = flag.Int("workers", runtime.NumCPU(), "Parallel decode/render jobs")
	matrixMode = flag.Bool("matrix", false, "Write decoded matrices instead of invoking the renderer")
	gzipOut    = flag.Bool("gzip", false, "Gzip-compress written matrices")
	renderer   = flag.String("renderer", "/usr/bin/python", "Renderer interpreter")
	plotScript = flag.String("plot-script", "/usr/local/share/pythonprop/voaAreaPlot.py", "Renderer script")
	timeout    = flag.Duration("timeout", 60*time.Second, "Per-plot renderer timeout")
	progress   = flag.Bool("progress", true, "Show live progress")
)

// job is one (deck, variant, metric) unit of work.
type job struct {
	VoaPath string
	VG      voacap.VGFile
	Metric  vgrid.Metric
	OutDir  string
	OutFile string
}

func main() {
	log.SetFlags(log.Ltime)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voa-area v%s - VOACAP area grid decoder\n\n", Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*rootPath) == "" {
		fmt.Fprintln(os.Stderr, "Error: --root is required")
		flag.Usage()
		os.Exit(2)
	}
	root := filepath.Clean(*rootPath)

	selected, err := parseSelectedMetrics(*mapsFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if !*matrixMode {
		if st, err := os.Stat(*renderer); err != nil || st.IsDir() {
			log.Fatalf("Renderer interpreter not found: %s", *renderer)
		}
		if st, err := os.Stat(*plotScript); err != nil || st.IsDir() {
			log.Fatalf("Renderer script not found: %s", *plotScript)
		}
	}

	voaFiles, err := findVoaFiles(root)
	if err != nil {
		log.Fatalf("Scanning %s: %v", root, err)
	}
	if len(voaFiles) == 0 {
		log.Fatalf("No .voa files found under %s", root)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	log.Printf("voa-area v%s: %d decks, metrics %s, %d workers",
		Version, len(voaFiles), metricNames(selected), *workers)

	jobs := buildJobs(ctx, root, voaFiles, selected)

	completed := runPool(ctx, jobs, *workers, *progress, runJob)

	log.Printf("Done. %d/%d jobs in %s", completed, len(jobs), time.Since(start).Truncate(time.Millisecond))
}

// runPool fans the jobs out to nw workers and returns the number
// completed. The completion channel is always drained, with or without
// progress output, so workers never block on a full buffer.
func runPool(ctx context.Context, jobs []job, nw int, showProgress bool, run func(context.Context, job) error) int {
	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	doneCh := make(chan struct{}, 256)
	var printerWG sync.WaitGroup
	completed := 0
	printerWG.Add(1)
	go func() {
		defer printerWG.Done()
		for range doneCh {
			completed++
			if showProgress {
				fmt.Printf("Progress %d/%d\n", completed, len(jobs))
			}
		}
	}()

	var wg sync.WaitGroup
	if nw < 1 {
		nw = 1
	}
	for i := 0; i < nw; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := run(ctx, j); err != nil {
					log.Printf("[%s] %s: %v", j.Metric, filepath.Base(j.VG.Path), err)
				}
				select {
				case doneCh <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
	close(doneCh)
	printerWG.Wait()
	return completed
}

// buildJobs pairs every deck's sibling .vg files with the selected
// metrics, skipping outputs that already exist.
func buildJobs(ctx context.Context, root string, voaFiles []string, selected []vgrid.Metric) []job {
	var jobs []job
	for _, voa := range voaFiles {
		select {
		case <-ctx.Done():
			return jobs
		default:
		}
		vgList, err := voacap.SiblingVG(voa)
		if err != nil || len(vgList) == 0 {
			log.Printf("Warn: no .vg files near %s", voa)
			continue
		}
		year, month := yearMonthFrom(filepath.Dir(voa), root)
		for _, vg := range vgList {
			for _, m := range selected {
				outDir := filepath.Join(root, m.String(), year, month)
				outFile := filepath.Join(outDir, outName(voa, vg.Selector, *matrixMode, *gzipOut))
				if _, err := os.Stat(outFile); err == nil {
					continue
				}
				jobs = append(jobs, job{
					VoaPath: voa, VG: vg, Metric: m,
					OutDir: outDir, OutFile: outFile,
				})
			}
		}
	}
	return jobs
}

// outName derives the output file name from the deck metadata:
// <hh>UT-<freq>MHz with the extension of the chosen mode.
func outName(voaPath string, selector int, matrix, gz bool) string {
	hh, freq := "00", 0.0
	if meta, err := vgrid.ParseVoaFile(voaPath); err == nil {
		if utc, err := meta.UTCAt(selector); err == nil {
			hh = fmt.Sprintf("%02d", utc%24)
		}
		if len(meta.Freqs) > 0 {
			freq = meta.Freqs[0]
		}
	}
	base := fmt.Sprintf("%sUT-%06.3fMHz", hh, freq)
	switch {
	case matrix && gz:
		return base + ".txt.gz"
	case matrix:
		return base + ".txt"
	default:
		return base + ".png"
	}
}

func runJob(ctx context.Context, j job) error {
	if err := os.MkdirAll(j.OutDir, 0o755); err != nil {
		return err
	}
	if *matrixMode {
		return writeMatrix(j)
	}
	return renderPlot(ctx, j)
}

// writeMatrix decodes the grid and writes it as rows of values.
func writeMatrix(j job) error {
	meta, err := vgrid.ParseVoaFile(j.VoaPath)
	if err != nil {
		return err
	}

	f, err := os.Open(j.VG.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	grid, err := vgrid.Decode(f, j.Metric, meta.GridSize, meta.Rect)
	if err != nil {
		return err
	}

	out, err := os.Create(j.OutFile)
	if err != nil {
		return err
	}

	var w io.Writer = out
	var gz *gzip.Writer
	if *gzipOut {
		gz = gzip.NewWriter(out)
		w = gz
	}
	if err := grid.WriteMatrix(w); err != nil {
		out.Close()
		os.Remove(j.OutFile)
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			out.Close()
			os.Remove(j.OutFile)
			return err
		}
	}
	return out.Close()
}

// renderPlot shells out to the Python renderer for one plot.
func renderPlot(ctx context.Context, j job) error {
	jobCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cmd := exec.CommandContext(jobCtx, *renderer, *plotScript,
		"-f",
		"-d", strconv.Itoa(int(j.Metric)),
		"-o", j.OutFile,
		"-v", strconv.Itoa(j.VG.Selector),
		j.VoaPath)
	out, err := cmd.CombinedOutput()

	if jobCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("renderer timeout after %s", *timeout)
	}
	if err != nil {
		return fmt.Errorf("renderer: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func parseSelectedMetrics(raw string) ([]vgrid.Metric, error) {
	r := strings.TrimSpace(strings.ToUpper(raw))
	if r == "ALL" {
		return []vgrid.Metric{vgrid.MUF, vgrid.REL, vgrid.SNR, vgrid.SNRXX, vgrid.SDBW, vgrid.SMETER}, nil
	}
	seen := map[vgrid.Metric]bool{}
	var sel []vgrid.Metric
	for _, part := range strings.Split(r, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := vgrid.ParseMetric(part)
		if err != nil {
			return nil, err
		}
		if !seen[m] {
			seen[m] = true
			sel = append(sel, m)
		}
	}
	sort.Slice(sel, func(i, j int) bool { return sel[i] < sel[j] })
	return sel, nil
}

func metricNames(metrics []vgrid.Metric) string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

// findVoaFiles returns the newest .voa per directory so a rerun after
// a deck rebuild picks up the fresh deck.
func findVoaFiles(root string) ([]string, error) {
	dirNewest := map[string]string{}
	dirMtime := map[string]time.Time{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".voa") {
			return nil
		}
		info, e := d.Info()
		if e != nil {
			return e
		}
		dir := filepath.Dir(path)
		mt := info.ModTime()
		prev, ok := dirNewest[dir]
		switch {
		case !ok, mt.After(dirMtime[dir]):
			dirNewest[dir] = path
			dirMtime[dir] = mt
		case mt.Equal(dirMtime[dir]) && path > prev:
			dirNewest[dir] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dirNewest))
	for _, p := range dirNewest {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// yearMonthFrom reads the year and month partition from the deck's
// path relative to the root.
func yearMonthFrom(voaDir, root string) (year, month string) {
	rel, err := filepath.Rel(root, voaDir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "Unknown", "Unknown"
	}
	parts := strings.Split(rel, string(os.PathSeparator))
	switch len(parts) {
	case 0:
		return "Unknown", "Unknown"
	case 1:
		return parts[0], "Unknown"
	default:
		return parts[0], parts[1]
	}
}
