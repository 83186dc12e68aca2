// Package main collects VOACAP point-to-point prediction output into
// ClickHouse.
//
// It walks a prediction tree for .vg<N> files (optionally gzipped),
// parses them across a bounded worker pool, and commits every decoded
// record in one batch. The commit is all-or-nothing; on failure the
// run exits non-zero and nothing is persisted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voalab/voacap-apps/internal/common"
	"github.com/voalab/voacap-apps/internal/observability"
	"github.com/voalab/voacap-apps/internal/sink"
	"github.com/voalab/voacap-apps/internal/voacap"
)

var Version = "1.0.0"

var (
	chHost      = flag.String("ch-host", "", "ClickHouse address (host:port), default from CLICKHOUSE_HOST")
	chDB        = flag.String("ch-db", "", "ClickHouse database, default from CLICKHOUSE_DATABASE")
	chTable     = flag.String("ch-table", "points", "ClickHouse table")
	native      = flag.Bool("native", false, "Use the native columnar protocol for the insert")
	workers     = flag.Int("workers", runtime.NumCPU(), "Parallel file parsers")
	policyFlag  = flag.String("headless", "drop", "Data lines before any header: drop or sentinel")
	midpoint    = flag.Bool("midpoint", false, "Compute path midpoints and persist midlat/midlon")
	dryRun      = flag.Bool("dry-run", false, "Parse only, skip the ClickHouse commit")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	silent      = flag.Bool("silent", false, "Suppress progress output")
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voa-collect v%s - VOACAP prediction collector\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <path>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Walks <path> for .vg<N> prediction files and loads them into ClickHouse.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing <path> argument\n")
		flag.Usage()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	policy, err := parsePolicy(*policyFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := common.DefaultConfig()
	if *chHost == "" {
		*chHost = fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHousePort)
	}
	if *chDB == "" {
		*chDB = cfg.ClickHouseDatabase
	}

	log.Println("=========================================================")
	log.Printf("VOACAP Collector v%s", Version)
	log.Println("=========================================================")
	log.Printf("Input: %s", inputPath)
	log.Printf("Workers: %d | Headless: %s | Midpoint: %v", *workers, *policyFlag, *midpoint)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if *metricsAddr != "" {
		metrics = observability.NewMetrics()
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics endpoint: %v", err)
			}
		}()
		log.Printf("Metrics: http://%s/metrics", *metricsAddr)
	}

	files, err := voacap.DiscoverVG(inputPath)
	if err != nil {
		log.Fatalf("Discovering files under %s: %v", inputPath, err)
	}
	if len(files) == 0 {
		log.Fatalf("No .vg<N> files found under %s", inputPath)
	}
	log.Printf("Found %d prediction files", len(files))

	progress := common.NewStats()
	progress.SetSilent(*silent)
	progress.StartReporter()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	agg := &voacap.Aggregator{
		Workers:  *workers,
		Policy:   policy,
		Midpoint: *midpoint,
		Metrics:  metrics,
		OnFileDone: func(records int) {
			progress.AddFile()
			progress.AddRecords(uint64(records))
		},
	}

	start := time.Now()
	records, stats, err := agg.Run(ctx, paths)
	progress.StopReporter()
	if err != nil {
		log.Fatalf("Aborted: %v", err)
	}

	log.Printf("Parsed %d records from %d files in %s (%d headers, %d parse errors, %d failed files)",
		stats.Records, len(files), time.Since(start).Truncate(time.Millisecond),
		stats.HeaderLines, stats.ParseErrors, stats.FilesFailed)

	if *dryRun {
		log.Println("Dry run: skipping commit")
		return
	}

	opts := sink.Options{
		Addr:     *chHost,
		Database: *chDB,
		Table:    *chTable,
		Username: cfg.ClickHouseUser,
		Password: cfg.ClickHousePassword,
		Midpoint: *midpoint,
	}

	var rows sink.RowSink
	if *native {
		rows, err = sink.NewNativeSink(ctx, opts)
	} else {
		var chs *sink.ClickHouseSink
		chs, err = sink.NewClickHouseSink(ctx, opts)
		if err == nil {
			if err := chs.EnsureTable(ctx); err != nil {
				log.Fatalf("%v", err)
			}
		}
		rows = chs
	}
	if err != nil {
		log.Fatalf("Connecting to ClickHouse at %s: %v", *chHost, err)
	}
	defer rows.Close()

	commitStart := time.Now()
	if err := rows.Commit(ctx, records); err != nil {
		log.Fatalf("%v", err)
	}
	commitDur := time.Since(commitStart)
	progress.SetCommitLatency(commitDur)
	if metrics != nil {
		metrics.InsertDuration.Observe(commitDur.Seconds())
		metrics.BatchRows.Observe(float64(len(records)))
	}

	log.Printf("Committed %d rows to %s.%s in %s", len(records), *chDB, *chTable,
		commitDur.Truncate(time.Millisecond))
}

func parsePolicy(s string) (voacap.HeadlessPolicy, error) {
	switch s {
	case "drop":
		return voacap.DropHeadless, nil
	case "sentinel":
		return voacap.SentinelHeadless, nil
	}
	return 0, fmt.Errorf("unknown headless policy %q (want drop or sentinel)", s)
}
