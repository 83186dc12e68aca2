package voacap

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/pgzip"

	"github.com/voalab/voacap-apps/internal/observability"
)

// MaxErrorsToLog caps per-run parse-error logging so truncated files do
// not flood the output.
const MaxErrorsToLog = 10

// Aggregator parses many prediction files across a bounded worker pool.
// Each file is folded sequentially by its own Parser, so the header
// ordering within a file is preserved and no context is shared; only
// the result collection is, behind one mutex.
type Aggregator struct {
	Workers  int
	Policy   HeadlessPolicy
	Midpoint bool

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics
	// Logger defaults to the process logger.
	Logger *log.Logger
	// OnFileDone, when set, is called after each successfully parsed
	// file with the number of records it produced. Files that failed
	// to open or decompress do not trigger it. Called from worker
	// goroutines.
	OnFileDone func(records int)
}

// Run parses every file and returns the combined records and counters.
// A file that cannot be opened or read is reported, counted, and
// skipped; the batch continues. Run returns an error only when the
// context is cancelled.
func (a *Aggregator) Run(ctx context.Context, files []string) ([]Record, ParseStats, error) {
	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	logger := a.Logger
	if logger == nil {
		logger = log.Default()
	}

	var (
		mu         sync.Mutex
		records    []Record
		stats      ParseStats
		errsLogged int
	)

	fileChan := make(chan string, len(files))
	for _, f := range files {
		fileChan <- f
	}
	close(fileChan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range fileChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				start := time.Now()
				recs, fileStats, err := a.parseFile(path)
				if a.Metrics != nil {
					a.Metrics.FileDuration.Observe(time.Since(start).Seconds())
					a.Metrics.LinesRead.Add(float64(fileStats.LinesRead))
					a.Metrics.RecordsParsed.Add(float64(fileStats.Records))
					a.Metrics.ParseErrors.Add(float64(fileStats.ParseErrors))
					a.Metrics.HeaderLines.Add(float64(fileStats.HeaderLines))
				}

				mu.Lock()
				stats.Merge(fileStats)
				if err != nil {
					stats.FilesFailed++
					if a.Metrics != nil {
						a.Metrics.FilesFailed.Inc()
					}
					if errsLogged < MaxErrorsToLog {
						logger.Printf("[%s] skipped: %v", filepath.Base(path), err)
						errsLogged++
					}
				} else {
					records = append(records, recs...)
				}
				mu.Unlock()

				if err == nil && a.OnFileDone != nil {
					a.OnFileDone(len(recs))
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return records, stats, err
	}
	return records, stats, nil
}

// parseFile opens one prediction file, transparently decompressing
// .gz archives, and folds the parser over its lines.
func (a *Aggregator) parseFile(path string) ([]Record, ParseStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, ParseStats{}, err
		}
		defer gz.Close()
		r = gz
	}

	return ParseReader(r, a.Policy, a.Midpoint)
}
