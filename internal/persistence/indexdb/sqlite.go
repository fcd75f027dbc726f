// Package indexdb keeps a small sqlite index next to the turn log: per-turn
// state digests and the snapshot catalogue. A single writer goroutine owns
// the connection; callers enqueue rows and never block on disk.
package indexdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqTurn reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	turn turnRow
	snap snapshotRow
}

type turnRow struct {
	Turn    int
	Digest  string
	Actions int
}

type snapshotRow struct {
	Turn       int
	Path       string
	Characters int
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &DB{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads; NORMAL is a fair
	// durability tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			turn INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			actions INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			turn INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			characters INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordTurn indexes the digest of a completed turn.
func (s *DB) RecordTurn(turn int, digest string, actions int) error {
	return s.enqueue(req{kind: reqTurn, turn: turnRow{Turn: turn, Digest: digest, Actions: actions}})
}

// RecordSnapshot indexes a written snapshot file.
func (s *DB) RecordSnapshot(turn int, path string, characters int) error {
	return s.enqueue(req{kind: reqSnapshot, snap: snapshotRow{Turn: turn, Path: path, Characters: characters}})
}

func (s *DB) enqueue(r req) error {
	if s.closed.Load() {
		return fmt.Errorf("index db closed")
	}
	select {
	case s.ch <- r:
		return nil
	default:
		return fmt.Errorf("index db queue full")
	}
}

func (s *DB) loop() {
	for r := range s.ch {
		now := time.Now().UTC().Format(time.RFC3339)
		var err error
		switch r.kind {
		case reqTurn:
			_, err = s.db.Exec(
				`INSERT OR REPLACE INTO turns (turn, digest, actions, created_at) VALUES (?, ?, ?, ?)`,
				r.turn.Turn, r.turn.Digest, r.turn.Actions, now,
			)
		case reqSnapshot:
			_, err = s.db.Exec(
				`INSERT OR REPLACE INTO snapshots (turn, path, characters, created_at) VALUES (?, ?, ?, ?)`,
				r.snap.Turn, r.snap.Path, r.snap.Characters, now,
			)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "indexdb: write failed: %v\n", err)
		}
	}
}

// TurnDigest reads back one indexed digest. Used by tools and tests, not the
// hot path.
func (s *DB) TurnDigest(turn int) (string, error) {
	var digest string
	row := s.db.QueryRow(`SELECT digest FROM turns WHERE turn = ?`, turn)
	if err := row.Scan(&digest); err != nil {
		return "", err
	}
	return digest, nil
}

// LatestSnapshot returns the newest indexed snapshot, or ok=false when none
// has been written yet.
func (s *DB) LatestSnapshot() (turn int, path string, ok bool, err error) {
	row := s.db.QueryRow(`SELECT turn, path FROM snapshots ORDER BY turn DESC LIMIT 1`)
	switch err = row.Scan(&turn, &path); err {
	case nil:
		return turn, path, true, nil
	case sql.ErrNoRows:
		return 0, "", false, nil
	default:
		return 0, "", false, err
	}
}

func (s *DB) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
