// Package eventlog persists console, network, and stdio events observed on
// the inspected page to a SQLite table, so inspection items can attach
// them by id later. Writes are asynchronous and drop under backpressure;
// losing a log line is better than stalling the capture path.
package eventlog

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/pagelens/internal/debug"
)

// Event kinds.
const (
	KindConsole = "console"
	KindNetwork = "network"
	KindStdio   = "stdio"
)

const schema = `
CREATE TABLE IF NOT EXISTS page_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	level TEXT,
	method TEXT,
	url TEXT,
	status INTEGER,
	text TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_page_events_kind ON page_events(kind);
CREATE INDEX IF NOT EXISTS idx_page_events_ts ON page_events(timestamp);
`

// Event is one observed page event. ID is assigned by the database.
type Event struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"`
	Level     string `json:"level,omitempty"`
	Method    string `json:"method,omitempty"`
	URL       string `json:"url,omitempty"`
	Status    int    `json:"status,omitempty"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Log buffers events in memory and flushes them to SQLite in batches.
// The buffer channel stays open for the life of the process; shutdown is
// signalled separately so CDP callbacks racing Close can still record
// (their events are simply dropped once the flush loop has exited).
type Log struct {
	db       *sql.DB
	ch       chan *Event
	flushReq chan chan struct{}
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Open creates or opens the event database under dataDir and starts the
// flush goroutine.
func Open(dataDir string) (*Log, error) {
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "events.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize event database: %w", err)
	}

	l := &Log{
		db:       db,
		ch:       make(chan *Event, 1024),
		flushReq: make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.flushLoop()
	return l, nil
}

// RecordAsync queues an event for persistence. Non-blocking; drops the
// event when the buffer is full.
func (l *Log) RecordAsync(e *Event) {
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	select {
	case l.ch <- e:
	default:
	}
}

// Close drains the buffer, stops the flush goroutine, and closes the
// database. Records arriving after Close are dropped.
func (l *Log) Close() error {
	l.once.Do(func() {
		close(l.quit)
		<-l.done
	})
	return l.db.Close()
}

// Flush blocks until everything queued before the call has been written.
// A no-op after Close.
func (l *Log) Flush() {
	ack := make(chan struct{})
	select {
	case l.flushReq <- ack:
		<-ack
	case <-l.done:
	}
}

// Recent returns up to limit events of the given kind, newest first.
// An empty kind returns events of all kinds.
func (l *Log) Recent(kind string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, kind, level, method, url, status, text, timestamp FROM page_events`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	return l.queryEvents(query, args...)
}

// ByIDs returns the events with the given ids, in id order. Missing ids
// are skipped, not errors.
func (l *Log) ByIDs(ids []int64) ([]Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(
		`SELECT id, kind, level, method, url, status, text, timestamp FROM page_events WHERE id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ","))
	return l.queryEvents(query, args...)
}

func (l *Log) queryEvents(query string, args ...any) ([]Event, error) {
	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var level, method, url, text sql.NullString
		var status sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Kind, &level, &method, &url, &status, &text, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Level = level.String
		e.Method = method.String
		e.URL = url.String
		e.Status = int(status.Int64)
		e.Text = text.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *Log) flushLoop() {
	defer close(l.done)

	batch := make([]*Event, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e := <-l.ch:
			batch = append(batch, e)
			if len(batch) >= 64 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case ack := <-l.flushReq:
			batch = l.drainInto(batch)
			l.flushBatch(batch)
			batch = batch[:0]
			close(ack)
		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = batch[:0]
			}
		case <-l.quit:
			l.flushBatch(l.drainInto(batch))
			return
		}
	}
}

// drainInto moves everything currently buffered on the channel into batch
// without blocking.
func (l *Log) drainInto(batch []*Event) []*Event {
	for {
		select {
		case e := <-l.ch:
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

func (l *Log) flushBatch(batch []*Event) {
	if len(batch) == 0 {
		return
	}

	tx, err := l.db.Begin()
	if err != nil {
		debug.Error("eventlog", "begin tx: %v", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO page_events (kind, level, method, url, status, text, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		debug.Error("eventlog", "prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.Kind, e.Level, e.Method, e.URL, e.Status, e.Text, e.Timestamp); err != nil {
			debug.Error("eventlog", "insert: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		debug.Error("eventlog", "commit: %v", err)
	}
}
