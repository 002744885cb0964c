// Package ledger records limits the instrument accepted.
package ledger

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type PostgresLedger struct {
	db        *sql.DB
	tableName string
}

// OpenPostgres opens a lib/pq connection pool for dsn.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	return db, nil
}

func NewPostgresLedger(db *sql.DB, table string) (*PostgresLedger, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("ledger table %q is not a plain identifier", table)
	}
	return &PostgresLedger{db: db, tableName: table}, nil
}

func (l *PostgresLedger) Name() string { return "postgres" }

// EnsureSchema creates the ledger table if it does not exist.
func (l *PostgresLedger) EnsureSchema() error {
	_, err := l.db.Exec("CREATE TABLE IF NOT EXISTS " + l.tableName + ` (
	result_key  TEXT NOT NULL,
	polarity    TEXT NOT NULL,
	value_type  TEXT NOT NULL,
	channel     INTEGER NOT NULL,
	x           DOUBLE PRECISION[],
	y           DOUBLE PRECISION[],
	value       DOUBLE PRECISION,
	exported_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (result_key, polarity, channel, exported_at)
)`)
	return err
}

func (l *PostgresLedger) Record(records []*domain.ExportRecord) error {
	if len(records) == 0 {
		return nil
	}

	// INSERT ... ON CONFLICT DO NOTHING keeps retried exports idempotent.
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(l.tableName)
	b.WriteString(" (result_key, polarity, value_type, channel, x, y, value, exported_at) VALUES ")

	args := make([]any, 0, len(records)*8)
	for i, r := range records {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8))

		var (
			x, y  any
			value sql.NullFloat64
		)
		if r.ValueType == domain.ValueTypeMeter {
			value = sql.NullFloat64{Float64: r.Value, Valid: true}
		} else {
			x, y = pq.Float64Array(r.X), pq.Float64Array(r.Y)
		}

		args = append(args,
			string(r.Key),
			r.Polarity.String(),
			string(r.ValueType),
			r.Channel,
			x,
			y,
			value,
			r.ExportedAt,
		)
	}

	b.WriteString(" ON CONFLICT (result_key, polarity, channel, exported_at) DO NOTHING")

	_, err := l.db.Exec(b.String(), args...)
	return err
}

var _ ports.ExportLedger = (*PostgresLedger)(nil)

// Nop discards records.
type Nop struct{}

func (Nop) Record([]*domain.ExportRecord) error { return nil }
func (Nop) Name() string                        { return "nop" }

var _ ports.ExportLedger = Nop{}
