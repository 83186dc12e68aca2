package voacap_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voalab/voacap-apps/internal/observability"
	"github.com/voalab/voacap-apps/internal/voacap"
)

func writeVGFile(t *testing.T, dir, name string, headers int) string {
	t.Helper()
	var lines []string
	lines = append(lines, "VOACAPL area coverage")
	for h := 0; h < headers; h++ {
		lines = append(lines, fmt.Sprintf("KP03QA [1/4 wl Gud] 1.5kW -1deg %dut 3.500MHz Oct 25ssn", h+1))
		for i := 0; i < 3; i++ {
			lines = append(lines, dataLine(float64(10+i), float64(20+h), "F2", float64(i)))
		}
	}
	lines = append(lines, "legend PWRCTANGLER")
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func sortRecords(recs []voacap.Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UTC != recs[j].UTC {
			return recs[i].UTC < recs[j].UTC
		}
		if recs[i].RxLat != recs[j].RxLat {
			return recs[i].RxLat < recs[j].RxLat
		}
		return recs[i].RxLon < recs[j].RxLon
	})
}

func TestAggregatorWorkerCountEquivalence(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 1; i <= 6; i++ {
		files = append(files, writeVGFile(t, dir, fmt.Sprintf("cap_03.500.vg%d", i), 2))
	}

	run := func(workers int) ([]voacap.Record, voacap.ParseStats) {
		agg := &voacap.Aggregator{Workers: workers, Policy: voacap.DropHeadless}
		recs, stats, err := agg.Run(context.Background(), files)
		require.NoError(t, err)
		return recs, stats
	}

	one, statsOne := run(1)
	many, statsMany := run(4)

	sortRecords(one)
	sortRecords(many)
	assert.Equal(t, one, many)
	assert.Equal(t, statsOne, statsMany)
	assert.Len(t, one, 6*2*3)
}

func TestAggregatorSkipsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	good := writeVGFile(t, dir, "cap_07.100.vg1", 1)
	missing := filepath.Join(dir, "cap_07.100.vg2")

	var doneCalls, doneRecords atomic.Int64
	agg := &voacap.Aggregator{
		Workers: 2,
		Policy:  voacap.DropHeadless,
		Metrics: observability.NewMetricsForTesting(),
		OnFileDone: func(records int) {
			doneCalls.Add(1)
			doneRecords.Add(int64(records))
		},
	}
	recs, stats, err := agg.Run(context.Background(), []string{good, missing})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.EqualValues(t, 1, stats.FilesFailed)

	// Only the readable file counts as done.
	assert.EqualValues(t, 1, doneCalls.Load())
	assert.EqualValues(t, 3, doneRecords.Load())
}

func TestAggregatorHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := &voacap.Aggregator{Workers: 1, Policy: voacap.DropHeadless}
	_, _, err := agg.Run(ctx, []string{"does-not-matter.vg1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverVG(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2026", "Oct", "3.500")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{"cap_03.500.voa", "cap_03.500.vg1", "cap_03.500.vg2", "cap_03.500.vg12", "cap_03.500.vg13", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(sub, name), nil, 0o644))
	}

	files, err := voacap.DiscoverVG(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, 1, files[0].Selector)
	assert.Equal(t, 12, files[1].Selector)
	assert.Equal(t, 2, files[2].Selector)
}
