package sink_test

import (
	"errors"
	"testing"

	"github.com/ClickHouse/ch-go/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voalab/voacap-apps/internal/sink"
	"github.com/voalab/voacap-apps/internal/voacap"
)

func TestColumnsOrder(t *testing.T) {
	base := sink.Columns(false)
	require.Len(t, base, 33)
	assert.Equal(t, "utc", base[0])
	assert.Equal(t, "month", base[1])
	assert.Equal(t, "rangle", base[30])
	assert.Equal(t, "km", base[31])
	assert.Equal(t, "deg", base[32])

	mid := sink.Columns(true)
	require.Len(t, mid, 35)
	assert.Equal(t, "midlat", mid[31])
	assert.Equal(t, "midlon", mid[32])
	assert.Equal(t, "km", mid[33])
	assert.Equal(t, "deg", mid[34])
}

func TestRecordBatchInput(t *testing.T) {
	rec := voacap.Record{
		UTC: 14, Month: "Oct", FreqMHz: 3.5, Mode: "F2F2",
		TxLat: 63.02, RxLat: 10, Km: 5915.2, Deg: 181.7,
		MidLat: 36.5, MidLon: 20.4,
	}

	b := sink.NewRecordBatch(true)
	b.Append(&rec)
	b.Append(&rec)
	assert.Equal(t, 2, b.Rows())

	input := b.Input()
	require.Len(t, input, 35)
	for i, name := range sink.Columns(true) {
		assert.Equal(t, name, input[i].Name)
	}

	utc := input[0].Data.(*proto.ColInt16)
	assert.Equal(t, int16(14), utc.Row(0))
	km := input[33].Data.(*proto.ColFloat64)
	assert.Equal(t, 5915.2, km.Row(1))

	b.Reset()
	assert.Zero(t, b.Rows())
}

func TestRecordBatchWithoutMidpoint(t *testing.T) {
	b := sink.NewRecordBatch(false)
	b.Append(&voacap.Record{Km: 100})
	input := b.Input()
	require.Len(t, input, 33)
	assert.Equal(t, "km", input[31].Name)
}

func TestCommitErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &sink.CommitError{Table: "voacap.points", Rows: 42, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "42 rows")
	assert.Contains(t, err.Error(), "voacap.points")
}
