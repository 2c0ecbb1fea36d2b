package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

// Querier is the subset of *pgxpool.Pool the source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource implements telemetry.Source by reading the table directly.
type PostgresSource struct {
	db    Querier
	table string
}

// NewPostgresPool opens and pings a connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func NewPostgresSource(db Querier, table string) *PostgresSource {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{db: db, table: table}
}

func (p *PostgresSource) Name() string {
	return "postgres"
}

func (p *PostgresSource) query(since time.Time) (string, []any) {
	sql := `SELECT latitude, longitude, altitude, hdop, temperature, ph, dissolvedsolids, timestamp, f_port
		FROM ` + pgx.Identifier{p.table}.Sanitize()
	var args []any
	if !since.IsZero() {
		sql += ` WHERE timestamp >= $1`
		args = append(args, since.UTC())
	}
	sql += ` ORDER BY timestamp DESC`
	return sql, args
}

func (p *PostgresSource) Fetch(ctx context.Context, since time.Time) ([]telemetry.Reading, error) {
	sql, args := p.query(since)

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	defer rows.Close()

	var readings []telemetry.Reading
	for rows.Next() {
		var (
			lat, lng, alt, hdop, temp, ph, tds *float64
			ts                                 *time.Time
			port                               *int64
		)
		if err := rows.Scan(&lat, &lng, &alt, &hdop, &temp, &ph, &tds, &ts, &port); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", p.table, err)
		}

		r := telemetry.Reading{
			Latitude:        float(lat),
			Longitude:       float(lng),
			Altitude:        float(alt),
			HDOP:            float(hdop),
			Temperature:     float(temp),
			PH:              float(ph),
			DissolvedSolids: float(tds),
		}
		if ts != nil {
			r.Timestamp = ts.UTC()
		}
		if port != nil {
			r.Port = int(*port)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s rows: %w", p.table, err)
	}
	return readings, nil
}
