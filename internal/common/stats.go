package common

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats holds atomic progress counters for one ingest or predict run.
// A background reporter prints them periodically; counters are safe to
// bump from any worker goroutine.
type Stats struct {
	RecordsParsed  uint64
	FilesProcessed uint64
	CommitLatency  uint64 // nanoseconds of the last sink commit

	running  atomic.Bool
	stopCh   chan struct{}
	silent   bool
	lastRows uint64
	lastTime time.Time
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{stopCh: make(chan struct{})}
}

// AddRecords atomically increments the parsed record counter.
func (s *Stats) AddRecords(count uint64) {
	atomic.AddUint64(&s.RecordsParsed, count)
}

// AddFile atomically marks one more file as processed.
func (s *Stats) AddFile() {
	atomic.AddUint64(&s.FilesProcessed, 1)
}

// SetCommitLatency atomically records the last commit duration.
func (s *Stats) SetCommitLatency(d time.Duration) {
	atomic.StoreUint64(&s.CommitLatency, uint64(d.Nanoseconds()))
}

// GetRecords atomically reads the parsed record count.
func (s *Stats) GetRecords() uint64 {
	return atomic.LoadUint64(&s.RecordsParsed)
}

// GetFiles atomically reads the processed file count.
func (s *Stats) GetFiles() uint64 {
	return atomic.LoadUint64(&s.FilesProcessed)
}

// SetSilent enables or disables silent mode.
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine that prints progress
// every second. Output is newline-based so it interleaves cleanly
// with log.Printf.
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return
	}
	s.running.Store(true)
	// StopReporter closes the channel, so a restart needs a fresh one.
	s.stopCh = make(chan struct{})
	s.lastTime = time.Now()
	s.lastRows = 0
	go s.reporterLoop(s.stopCh)
}

// StopReporter stops the background reporter goroutine.
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.printStatus()
		}
	}
}

func (s *Stats) printStatus() {
	if s.silent {
		return
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		return
	}

	currentRows := s.GetRecords()
	recPerSec := float64(currentRows-s.lastRows) / elapsed
	commitMs := float64(atomic.LoadUint64(&s.CommitLatency)) / 1e6

	fmt.Printf("[Progress] Files: %d | Records: %d (%.0f rec/s) | Commit: %.1f ms\n",
		s.GetFiles(), currentRows, recPerSec, commitMs)

	s.lastRows = currentRows
	s.lastTime = now
}

// Reset clears all counters.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.RecordsParsed, 0)
	atomic.StoreUint64(&s.FilesProcessed, 0)
	atomic.StoreUint64(&s.CommitLatency, 0)
	s.lastRows = 0
	s.lastTime = time.Now()
}
