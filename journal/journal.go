// CLAUDE:SUMMARY Async SQLite journal of citation lookups: batched flush loop, non-blocking record, recent-entry queries.
// Package journal persists citation lookup outcomes to SQLite, asynchronously
// and off the navigation path. It is observability for the host, not core
// state: the matching engine works identically with the journal disabled.
package journal

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/citenav/dbopen"
)

// Entry is one recorded citation lookup.
type Entry struct {
	LookupID   string `json:"lookup_id"`
	Transport  string `json:"transport"` // "http" or "mcp"
	Quote      string `json:"quote"`
	Status     string `json:"status"`
	Page       int    `json:"page"`
	Strategy   string `json:"strategy"`
	DurationUs int64  `json:"duration_us"`
	Timestamp  int64  `json:"timestamp"` // unix microseconds
}

// Schema for the citation_lookups table. Applied by Init.
const Schema = `
CREATE TABLE IF NOT EXISTS citation_lookups (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	lookup_id TEXT NOT NULL,
	transport TEXT NOT NULL,
	quote TEXT NOT NULL,
	status TEXT NOT NULL,
	page INTEGER NOT NULL,
	strategy TEXT,
	duration_us INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_citation_lookups_ts ON citation_lookups(timestamp);
CREATE INDEX IF NOT EXISTS idx_citation_lookups_status ON citation_lookups(status);
`

// Journal buffers entries and flushes them in batches.
type Journal struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// New creates a Journal backed by the given database connection and starts
// its flush loop. Call Init before recording.
func New(db *sql.DB) *Journal {
	j := &Journal{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go j.flushLoop()
	return j
}

// Init creates the citation_lookups table if it doesn't exist.
func (j *Journal) Init() error {
	_, err := j.db.Exec(Schema)
	return err
}

// RecordAsync queues an entry for persistence. Non-blocking; drops if the
// buffer is full so the journal can never backpressure a citation click.
func (j *Journal) RecordAsync(e *Entry) {
	select {
	case j.ch <- e:
	default:
	}
}

// Recent returns the latest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `SELECT lookup_id, transport, quote, status, page,
		COALESCE(strategy, ''), duration_us, timestamp
		FROM citation_lookups ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.LookupID, &e.Transport, &e.Quote, &e.Status,
			&e.Page, &e.Strategy, &e.DurationUs, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the buffer and stops the flush goroutine.
func (j *Journal) Close() error {
	j.once.Do(func() {
		close(j.ch)
		<-j.done
	})
	return nil
}

func (j *Journal) flushLoop() {
	defer close(j.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-j.ch:
			if !ok {
				j.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				j.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (j *Journal) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	err := dbopen.RunTx(context.Background(), j.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO citation_lookups
			(lookup_id, transport, quote, status, page, strategy, duration_us, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range batch {
			if _, err := stmt.Exec(e.LookupID, e.Transport, e.Quote, e.Status,
				e.Page, e.Strategy, e.DurationUs, e.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("journal: flush batch", "size", len(batch), "error", err)
	}
}
