// Package main exports VOACAP point-to-point prediction records to a
// Parquet file for archival and offline analysis. The decode path is
// the same as voa-collect; only the destination differs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/voalab/voacap-apps/internal/voacap"
)

var Version = "1.0.0"

var (
	outPath    = flag.String("o", "predictions.parquet", "Output Parquet file")
	workers    = flag.Int("workers", runtime.NumCPU(), "Parallel file parsers")
	policyFlag = flag.String("headless", "drop", "Data lines before any header: drop or sentinel")
	midpoint   = flag.Bool("midpoint", false, "Compute path midpoints")
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "voa-parquet v%s - VOACAP prediction Parquet exporter\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <path>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing <path> argument\n")
		flag.Usage()
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	policy := voacap.DropHeadless
	if *policyFlag == "sentinel" {
		policy = voacap.SentinelHeadless
	} else if *policyFlag != "drop" {
		log.Fatalf("unknown headless policy %q (want drop or sentinel)", *policyFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := voacap.DiscoverVG(inputPath)
	if err != nil {
		log.Fatalf("Discovering files under %s: %v", inputPath, err)
	}
	if len(files) == 0 {
		log.Fatalf("No .vg<N> files found under %s", inputPath)
	}

	log.Printf("voa-parquet v%s: %d files -> %s", Version, len(files), *outPath)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}

	agg := &voacap.Aggregator{Workers: *workers, Policy: policy, Midpoint: *midpoint}
	start := time.Now()
	records, stats, err := agg.Run(ctx, paths)
	if err != nil {
		log.Fatalf("Aborted: %v", err)
	}
	log.Printf("Parsed %d records (%d parse errors, %d failed files) in %s",
		stats.Records, stats.ParseErrors, stats.FilesFailed,
		time.Since(start).Truncate(time.Millisecond))

	if err := writeParquet(*outPath, records); err != nil {
		log.Fatalf("Writing %s: %v", *outPath, err)
	}
	log.Printf("Wrote %d rows to %s", len(records), *outPath)
}

// writeParquet writes all records to a zstd-compressed Parquet file
// via a temp file and rename so a failed run leaves no partial output.
func writeParquet(path string, records []voacap.Record) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	writer := parquet.NewGenericWriter[voacap.Record](f, parquet.Compression(&parquet.Zstd))
	if _, err := writer.Write(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
