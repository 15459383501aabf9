package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"BoundaryLab/internal/domain/models"
	domrepo "BoundaryLab/internal/domain/repository"
	applogger "BoundaryLab/pkg/logger"
)

const insertChunk = 2000

// CHMovementStore implements MovementStore backed by ClickHouse.
type CHMovementStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.MovementStore = (*CHMovementStore)(nil)

func NewCHMovementStore(db *sql.DB, table string, l *applogger.Logger) *CHMovementStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHMovementStore{db: db, table: table, l: l}
}

// Schema returns the DDL for the movements table.
func Schema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts                DateTime64(3, 'UTC'),
            symbol            LowCardinality(String),
            measurement_value Float64,
            atr_movement      Float64,
            direction         Int8
        )
        ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)
    `, table)}
}

func (s *CHMovementStore) Init(ctx context.Context) error {
	for _, stmt := range Schema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

// StoreBatch inserts rows in multi-row VALUES chunks. Rows without a symbol or
// timestamp are skipped.
func (s *CHMovementStore) StoreBatch(ctx context.Context, movements []models.PriceMovement) error {
	for start := 0; start < len(movements); start += insertChunk {
		end := start + insertChunk
		if end > len(movements) {
			end = len(movements)
		}
		q, args := insertQuery(s.table, movements[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert movements failed",
				applogger.String("table", s.table),
				applogger.Int("rows", len(args)/5),
				applogger.Error(err))
			return fmt.Errorf("insert movements: %w", err)
		}
	}
	return nil
}

func insertQuery(table string, movements []models.PriceMovement) (string, []interface{}) {
	values := make([]string, 0, len(movements))
	args := make([]interface{}, 0, len(movements)*5)
	for _, m := range movements {
		if m.Symbol == "" || m.StartTimestamp.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, m.StartTimestamp.UTC(), m.Symbol, m.MeasurementValue, m.ATRMovement, int8(m.Direction))
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, measurement_value, atr_movement, direction) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

// Query returns the movements of symbol in [from, to] ordered by time. With a
// positive limit only the latest limit rows are kept. A zero to means now.
func (s *CHMovementStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.PriceMovement, error) {
	start := time.Now()
	if to.IsZero() {
		to = time.Now().UTC()
	}
	q, args := selectQuery(s.table, symbol, from, to, limit)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query movements failed",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err))
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	out := make([]models.PriceMovement, 0, 1024)
	for rows.Next() {
		var m models.PriceMovement
		var dir int8
		if err := rows.Scan(&m.StartTimestamp, &m.Symbol, &m.MeasurementValue, &m.ATRMovement, &dir); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Direction = int(dir)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// latest-N queries come back newest first
	if limit > 0 {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	s.l.Debug("clickhouse query movements ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration", time.Since(start)))
	return out, nil
}

func selectQuery(table, symbol string, from, to time.Time, limit int) (string, []interface{}) {
	q := fmt.Sprintf(`
        SELECT ts, symbol, measurement_value, atr_movement, direction
        FROM %s FINAL
        WHERE symbol = ? AND ts >= ? AND ts <= ?`, table)
	args := []interface{}{symbol, from.UTC(), to.UTC()}
	if limit > 0 {
		q += "\n        ORDER BY ts DESC\n        LIMIT ?"
		args = append(args, limit)
		return q, args
	}
	q += "\n        ORDER BY ts ASC"
	return q, args
}

func (s *CHMovementStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHMovementStore) Close() error {
	return nil
}
