package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"

	"github.com/voalab/voacap-apps/internal/voacap"
)

// RecordBatch holds columnar data for a native-protocol insert.
type RecordBatch struct {
	midpoint bool

	UTC   *proto.ColInt16
	Month *proto.ColStr
	Mode  *proto.ColStr

	// One Float64 column per numeric field, kept in persisted order.
	floats []*proto.ColFloat64
	byName map[string]*proto.ColFloat64
}

// floatColumns is every persisted column that is not utc, month or
// mode, in persisted order.
func floatColumns(midpoint bool) []string {
	var cols []string
	for _, c := range Columns(midpoint) {
		switch c {
		case "utc", "month", "mode":
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// NewRecordBatch allocates the column set for one table variant.
func NewRecordBatch(midpoint bool) *RecordBatch {
	b := &RecordBatch{
		midpoint: midpoint,
		UTC:      new(proto.ColInt16),
		Month:    new(proto.ColStr),
		Mode:     new(proto.ColStr),
		byName:   make(map[string]*proto.ColFloat64),
	}
	for _, name := range floatColumns(midpoint) {
		col := new(proto.ColFloat64)
		b.floats = append(b.floats, col)
		b.byName[name] = col
	}
	return b
}

// Append adds one record to every column.
func (b *RecordBatch) Append(r *voacap.Record) {
	b.UTC.Append(int16(r.UTC))
	b.Month.Append(r.Month)
	b.Mode.Append(r.Mode)

	b.byName["freq"].Append(r.FreqMHz)
	b.byName["txlat"].Append(r.TxLat)
	b.byName["txlon"].Append(r.TxLon)
	b.byName["rxlat"].Append(r.RxLat)
	b.byName["rxlon"].Append(r.RxLon)
	b.byName["muf"].Append(r.MUF)
	b.byName["tangle"].Append(r.TAngle)
	b.byName["delay"].Append(r.Delay)
	b.byName["vhite"].Append(r.VHite)
	b.byName["mufday"].Append(r.MUFDay)
	b.byName["loss"].Append(r.Loss)
	b.byName["dbu"].Append(r.DBU)
	b.byName["sdbw"].Append(r.SDBW)
	b.byName["ndbw"].Append(r.NDBW)
	b.byName["snr"].Append(r.SNR)
	b.byName["rpwrg"].Append(r.RPwrG)
	b.byName["rel"].Append(r.Rel)
	b.byName["mprob"].Append(r.MProb)
	b.byName["sprob"].Append(r.SProb)
	b.byName["tgain"].Append(r.TGain)
	b.byName["rgain"].Append(r.RGain)
	b.byName["snrxx"].Append(r.SNRxx)
	b.byName["du"].Append(r.DU)
	b.byName["dl"].Append(r.DL)
	b.byName["siglw"].Append(r.SigLw)
	b.byName["sigup"].Append(r.SigUp)
	b.byName["pwrct"].Append(r.PwrCt)
	b.byName["rangle"].Append(r.RAngle)
	if b.midpoint {
		b.byName["midlat"].Append(r.MidLat)
		b.byName["midlon"].Append(r.MidLon)
	}
	b.byName["km"].Append(r.Km)
	b.byName["deg"].Append(r.Deg)
}

// Rows returns the number of appended records.
func (b *RecordBatch) Rows() int { return b.UTC.Rows() }

// Reset clears every column for reuse.
func (b *RecordBatch) Reset() {
	b.UTC.Reset()
	b.Month.Reset()
	b.Mode.Reset()
	for _, col := range b.floats {
		col.Reset()
	}
}

// Input returns the columns in persisted order for conn.Do.
func (b *RecordBatch) Input() proto.Input {
	var input proto.Input
	for _, name := range Columns(b.midpoint) {
		switch name {
		case "utc":
			input = append(input, proto.InputColumn{Name: name, Data: b.UTC})
		case "month":
			input = append(input, proto.InputColumn{Name: name, Data: b.Month})
		case "mode":
			input = append(input, proto.InputColumn{Name: name, Data: b.Mode})
		default:
			input = append(input, proto.InputColumn{Name: name, Data: b.byName[name]})
		}
	}
	return input
}

// NativeSink commits record batches over the native protocol.
type NativeSink struct {
	conn     *ch.Client
	table    string
	midpoint bool
}

// NewNativeSink dials the server with LZ4 compression.
func NewNativeSink(ctx context.Context, opts Options) (*NativeSink, error) {
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     opts.Addr,
		Database:    opts.Database,
		User:        opts.Username,
		Password:    opts.Password,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse native connect: %w", err)
	}
	return &NativeSink{conn: conn, table: opts.tableFQN(), midpoint: opts.Midpoint}, nil
}

// Commit builds one columnar input from the records and sends it.
func (s *NativeSink) Commit(ctx context.Context, records []voacap.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := NewRecordBatch(s.midpoint)
	for i := range records {
		batch.Append(&records[i])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES",
		s.table, strings.Join(Columns(s.midpoint), ","))
	err := s.conn.Do(ctx, ch.Query{
		Body:  query,
		Input: batch.Input(),
	})
	if err != nil {
		return &CommitError{Table: s.table, Rows: len(records), Err: err}
	}
	return nil
}

func (s *NativeSink) Close() error { return s.conn.Close() }
