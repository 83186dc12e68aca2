package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voalab/voacap-apps/internal/vgrid"
)

// More jobs than the completion channel buffers. Without a drainer the
// workers stall on the send once the buffer fills.
func TestRunPoolFinishesWithoutProgress(t *testing.T) {
	jobs := make([]job, 600)
	var ran atomic.Int64

	done := make(chan int, 1)
	go func() {
		done <- runPool(context.Background(), jobs, 4, false, func(context.Context, job) error {
			ran.Add(1)
			return nil
		})
	}()

	select {
	case completed := <-done:
		assert.Equal(t, 600, completed)
		assert.EqualValues(t, 600, ran.Load())
	case <-time.After(10 * time.Second):
		t.Fatal("pool did not finish")
	}
}

func TestRunPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	jobs := make([]job, 500)
	var ran atomic.Int64

	done := make(chan int, 1)
	go func() {
		done <- runPool(ctx, jobs, 2, false, func(context.Context, job) error {
			if ran.Add(1) == 10 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case completed := <-done:
		assert.Less(t, completed, 500)
	case <-time.After(10 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestParseSelectedMetrics(t *testing.T) {
	all, err := parseSelectedMetrics("ALL")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	sel, err := parseSelectedMetrics("snr50, MUF, snr50")
	require.NoError(t, err)
	assert.Equal(t, []vgrid.Metric{vgrid.MUF, vgrid.SNR}, sel)

	_, err = parseSelectedMetrics("BOGUS")
	assert.Error(t, err)
}
