// Package sink persists parsed prediction records. Two ClickHouse
// implementations are provided: a row-oriented batch over the standard
// driver and a columnar native-protocol writer. A run accumulates all
// records in memory and commits them in one batch; commit is
// all-or-nothing with no retry.
package sink

import (
	"context"
	"fmt"

	"github.com/voalab/voacap-apps/internal/voacap"
)

// RowSink is the persistence boundary for prediction records.
type RowSink interface {
	// Commit appends and sends every record as a single batch.
	Commit(ctx context.Context, records []voacap.Record) error
	Close() error
}

// CommitError wraps a failed batch send. The batch is not partially
// applied; the caller decides whether the in-memory rows are retained.
type CommitError struct {
	Table string
	Rows  int
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit of %d rows to %s failed: %v", e.Rows, e.Table, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

var baseColumns = []string{
	"utc", "month", "freq", "txlat", "txlon", "rxlat", "rxlon",
	"muf", "mode", "tangle", "delay", "vhite", "mufday", "loss",
	"dbu", "sdbw", "ndbw", "snr", "rpwrg", "rel", "mprob", "sprob",
	"tgain", "rgain", "snrxx", "du", "dl", "siglw", "sigup",
	"pwrct", "rangle",
}

// Columns returns the persisted column names in order. The midpoint
// pair is present only in the richer variant of the table.
func Columns(midpoint bool) []string {
	cols := make([]string, 0, len(baseColumns)+4)
	cols = append(cols, baseColumns...)
	if midpoint {
		cols = append(cols, "midlat", "midlon")
	}
	return append(cols, "km", "deg")
}
