package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/voalab/voacap-apps/internal/voacap"
)

// Options configures a ClickHouse connection.
type Options struct {
	Addr     string
	Database string
	Table    string
	Username string
	Password string

	// Midpoint selects the richer table variant with midlat/midlon.
	Midpoint bool
}

func (o Options) tableFQN() string {
	return fmt.Sprintf("%s.%s", o.Database, o.Table)
}

// ClickHouseSink commits record batches over the standard driver.
type ClickHouseSink struct {
	conn     driver.Conn
	table    string
	midpoint bool
}

// NewClickHouseSink connects and pings the server.
func NewClickHouseSink(ctx context.Context, opts Options) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 300,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &ClickHouseSink{conn: conn, table: opts.tableFQN(), midpoint: opts.Midpoint}, nil
}

// EnsureTable creates the points table when missing.
func (s *ClickHouseSink) EnsureTable(ctx context.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	b.WriteString("    utc Int16,\n")
	b.WriteString("    month LowCardinality(String),\n")
	b.WriteString("    freq Float64,\n")
	for _, col := range []string{"txlat", "txlon", "rxlat", "rxlon", "muf"} {
		fmt.Fprintf(&b, "    %s Float64,\n", col)
	}
	b.WriteString("    mode LowCardinality(String),\n")
	for _, col := range []string{
		"tangle", "delay", "vhite", "mufday", "loss", "dbu", "sdbw",
		"ndbw", "snr", "rpwrg", "rel", "mprob", "sprob", "tgain",
		"rgain", "snrxx", "du", "dl", "siglw", "sigup", "pwrct",
		"rangle",
	} {
		fmt.Fprintf(&b, "    %s Float64,\n", col)
	}
	if s.midpoint {
		b.WriteString("    midlat Float64,\n")
		b.WriteString("    midlon Float64,\n")
	}
	b.WriteString("    km Float64,\n")
	b.WriteString("    deg Float64\n")
	b.WriteString(") ENGINE = MergeTree ORDER BY (month, utc, freq)")

	if err := s.conn.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Commit sends all records as one prepared batch.
func (s *ClickHouseSink) Commit(ctx context.Context, records []voacap.Record) error {
	if len(records) == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s)", s.table, strings.Join(Columns(s.midpoint), ","))
	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return &CommitError{Table: s.table, Rows: len(records), Err: err}
	}

	for i := range records {
		r := &records[i]
		values := []any{
			int16(r.UTC), r.Month, r.FreqMHz, r.TxLat, r.TxLon,
			r.RxLat, r.RxLon, r.MUF, r.Mode, r.TAngle, r.Delay,
			r.VHite, r.MUFDay, r.Loss, r.DBU, r.SDBW, r.NDBW,
			r.SNR, r.RPwrG, r.Rel, r.MProb, r.SProb, r.TGain,
			r.RGain, r.SNRxx, r.DU, r.DL, r.SigLw, r.SigUp,
			r.PwrCt, r.RAngle,
		}
		if s.midpoint {
			values = append(values, r.MidLat, r.MidLon)
		}
		values = append(values, r.Km, r.Deg)
		if err := batch.Append(values...); err != nil {
			return &CommitError{Table: s.table, Rows: len(records), Err: err}
		}
	}

	if err := batch.Send(); err != nil {
		return &CommitError{Table: s.table, Rows: len(records), Err: err}
	}
	return nil
}

func (s *ClickHouseSink) Close() error { return s.conn.Close() }
