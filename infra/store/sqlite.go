// Package store provides the SQLite implementation of the scheduling data
// store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/prodsched/core/model"
	corestore "github.com/kilianp07/prodsched/core/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS workers (id TEXT PRIMARY KEY, pos INTEGER, record TEXT);
CREATE TABLE IF NOT EXISTS areas (id TEXT PRIMARY KEY, pos INTEGER, record TEXT);
CREATE TABLE IF NOT EXISTS process_steps (id TEXT PRIMARY KEY, pos INTEGER, record TEXT);
CREATE TABLE IF NOT EXISTS orders (id TEXT PRIMARY KEY, pos INTEGER, day INTEGER, record TEXT);
CREATE TABLE IF NOT EXISTS order_steps (id TEXT PRIMARY KEY, pos INTEGER, order_id TEXT, record TEXT);
CREATE TABLE IF NOT EXISTS assignments (id TEXT, pos INTEGER, day INTEGER, worker_id TEXT, record TEXT);
CREATE TABLE IF NOT EXISTS alerts (id INTEGER PRIMARY KEY AUTOINCREMENT, day INTEGER, type TEXT, message TEXT, created_at INTEGER);
CREATE INDEX IF NOT EXISTS orders_day ON orders(day);
CREATE INDEX IF NOT EXISTS order_steps_order ON order_steps(order_id);
CREATE INDEX IF NOT EXISTS assignments_day ON assignments(day);
`

// SQLiteStore persists master data, orders and schedules in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ corestore.Store  = (*SQLiteStore)(nil)
	_ corestore.Seeder = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps in-memory databases alive and serialises writes
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Seed replaces the master data and orders with the content of d.
func (s *SQLiteStore) Seed(ctx context.Context, d corestore.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, table := range []string{"workers", "areas", "process_steps", "orders", "order_steps"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for i, w := range d.Workers {
		if err := insertJSON(ctx, tx, `INSERT INTO workers (id, pos, record) VALUES (?, ?, ?)`, w, w.ID, i); err != nil {
			return fmt.Errorf("worker %s: %w", w.ID, err)
		}
	}
	for i, a := range d.Areas {
		if err := insertJSON(ctx, tx, `INSERT INTO areas (id, pos, record) VALUES (?, ?, ?)`, a, a.ID, i); err != nil {
			return fmt.Errorf("area %s: %w", a.ID, err)
		}
	}
	for i, p := range d.ProcessSteps {
		if err := insertJSON(ctx, tx, `INSERT INTO process_steps (id, pos, record) VALUES (?, ?, ?)`, p, p.ID, i); err != nil {
			return fmt.Errorf("process step %s: %w", p.ID, err)
		}
	}
	for i, o := range d.Orders {
		if err := insertJSON(ctx, tx, `INSERT INTO orders (id, pos, day, record) VALUES (?, ?, ?, ?)`, o, o.ID, i, corestore.DayKey(o.ScheduledDate).Unix()); err != nil {
			return fmt.Errorf("order %s: %w", o.ID, err)
		}
	}
	for i, st := range d.OrderSteps {
		if err := insertJSON(ctx, tx, `INSERT INTO order_steps (id, pos, order_id, record) VALUES (?, ?, ?, ?)`, st, st.ID, i, st.OrderID); err != nil {
			return fmt.Errorf("order step %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// insertJSON runs query with args followed by the JSON encoding of v.
func insertJSON(ctx context.Context, tx *sql.Tx, query string, v any, args ...any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, append(args, string(b))...)
	return err
}

// queryJSON decodes the single record column returned by query.
func queryJSON[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		res = append(res, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	return queryJSON[model.Worker](ctx, s.db, `SELECT record FROM workers ORDER BY pos`)
}

func (s *SQLiteStore) ListAreas(ctx context.Context) ([]model.ProductionArea, error) {
	return queryJSON[model.ProductionArea](ctx, s.db, `SELECT record FROM areas ORDER BY pos`)
}

func (s *SQLiteStore) ListProcessSteps(ctx context.Context) ([]model.ProcessStep, error) {
	return queryJSON[model.ProcessStep](ctx, s.db, `SELECT record FROM process_steps ORDER BY pos`)
}

// ListOrders returns the orders scheduled on the calendar day of date and
// their steps.
func (s *SQLiteStore) ListOrders(ctx context.Context, date time.Time) ([]model.ProductionOrder, []model.OrderStep, error) {
	day := corestore.DayKey(date).Unix()
	orders, err := queryJSON[model.ProductionOrder](ctx, s.db, `SELECT record FROM orders WHERE day = ? ORDER BY pos`, day)
	if err != nil {
		return nil, nil, err
	}
	steps, err := queryJSON[model.OrderStep](ctx, s.db, `SELECT s.record FROM order_steps s
        JOIN orders o ON o.id = s.order_id
        WHERE o.day = ? ORDER BY s.pos`, day)
	if err != nil {
		return nil, nil, err
	}
	return orders, steps, nil
}

// SaveAssignments replaces the assignments stored for date.
func (s *SQLiteStore) SaveAssignments(ctx context.Context, date time.Time, tasks []model.Assignment) error {
	day := corestore.DayKey(date).Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE day = ?`, day); err != nil {
		return err
	}
	for i, t := range tasks {
		if err := insertJSON(ctx, tx, `INSERT INTO assignments (id, pos, day, worker_id, record) VALUES (?, ?, ?, ?, ?)`, t, t.ID, i, day, t.WorkerID); err != nil {
			return fmt.Errorf("assignment %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Assignments returns the assignments saved for date.
func (s *SQLiteStore) Assignments(ctx context.Context, date time.Time) ([]model.Assignment, error) {
	return queryJSON[model.Assignment](ctx, s.db, `SELECT record FROM assignments WHERE day = ? ORDER BY pos`, corestore.DayKey(date).Unix())
}

func (s *SQLiteStore) RaiseAlerts(ctx context.Context, alerts []model.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, a := range alerts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO alerts (day, type, message, created_at) VALUES (?, ?, ?, ?)`,
			corestore.DayKey(a.Date).Unix(), string(a.Type), a.Message, a.CreatedAt.UnixNano()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Alerts returns the alerts raised for date in insertion order.
func (s *SQLiteStore) Alerts(ctx context.Context, date time.Time) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day, type, message, created_at FROM alerts WHERE day = ? ORDER BY id`, corestore.DayKey(date).Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Alert
	for rows.Next() {
		var (
			day, created int64
			typ, msg     string
		)
		if err := rows.Scan(&day, &typ, &msg, &created); err != nil {
			return nil, err
		}
		res = append(res, model.Alert{
			Type:      model.AlertType(typ),
			Message:   msg,
			Date:      time.Unix(day, 0).UTC(),
			CreatedAt: time.Unix(0, created).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
