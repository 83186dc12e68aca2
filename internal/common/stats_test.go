package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.AddRecords(100)
	s.AddRecords(50)
	s.AddFile()
	s.AddFile()
	s.SetCommitLatency(25 * time.Millisecond)

	assert.EqualValues(t, 150, s.GetRecords())
	assert.EqualValues(t, 2, s.GetFiles())

	s.Reset()
	assert.EqualValues(t, 0, s.GetRecords())
	assert.EqualValues(t, 0, s.GetFiles())
}

func TestStatsReporterRestart(t *testing.T) {
	s := NewStats()
	s.SetSilent(true)

	// A stopped reporter must be startable again; the second stop
	// panics with a double close if the stop channel is reused.
	s.StartReporter()
	s.StopReporter()

	assert.NotPanics(t, func() {
		s.StartReporter()
		s.StopReporter()
	})
}
