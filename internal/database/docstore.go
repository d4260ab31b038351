// Package database owns the metadata store: connection setup, schema
// migrations and the monitored adapter handed to repositories.
package database

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/iliyamo/file-manager/internal/logging"
)

// DocStore is the connection-monitored handle over the metadata database.
// Repositories receive DB(); health and statistics endpoints use IsAlive
// and the count helpers.
type DocStore struct {
	db    *sql.DB
	log   logging.Logger
	alive atomic.Bool
}

// NewDocStore wraps an opened database.  It is considered alive because
// Open only returns after a successful ping.
func NewDocStore(db *sql.DB, log logging.Logger) *DocStore {
	d := &DocStore{db: db, log: log.With("component", "docstore")}
	d.alive.Store(true)
	return d
}

// DB exposes the pool for repositories.
func (d *DocStore) DB() *sql.DB { return d.db }

// IsAlive reports the result of the most recent ping or query failure.
func (d *DocStore) IsAlive() bool { return d.alive.Load() }

// Check pings the database and records the outcome.
func (d *DocStore) Check(ctx context.Context) error {
	err := d.db.PingContext(ctx)
	d.record(ctx, err)
	return err
}

// Monitor re-checks the connection every interval until ctx is done.
func (d *DocStore) Monitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, interval)
			_ = d.Check(pctx)
			cancel()
		}
	}
}

// CountUsers returns the number of rows in users.
func (d *DocStore) CountUsers(ctx context.Context) (int64, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM users")
}

// CountFiles returns the number of rows in files.
func (d *DocStore) CountFiles(ctx context.Context) (int64, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM files")
}

func (d *DocStore) count(ctx context.Context, q string) (int64, error) {
	var n int64
	err := d.db.QueryRowContext(ctx, q).Scan(&n)
	d.record(ctx, err)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Close marks the store down and closes the pool.
func (d *DocStore) Close() error {
	d.alive.Store(false)
	return d.db.Close()
}

func (d *DocStore) record(ctx context.Context, err error) {
	if err == nil {
		if !d.alive.Swap(true) {
			d.log.Info(ctx, "database connection restored")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	if d.alive.Swap(false) {
		d.log.Error(ctx, "database connection error", "error", err)
	}
}
