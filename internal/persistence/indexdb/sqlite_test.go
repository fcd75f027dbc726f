package indexdb

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.RecordTurn(0, "digest-zero", 3); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := db.RecordTurn(1, "digest-one", 2); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := db.RecordSnapshot(1, "snapshot-000001.json.zst", 4); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}
	// Close drains the writer queue before the connection goes away.
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.TurnDigest(1)
	if err != nil {
		t.Fatalf("TurnDigest: %v", err)
	}
	if got != "digest-one" {
		t.Fatalf("digest = %q, want %q", got, "digest-one")
	}

	turn, snapPath, okSnap, err := db.LatestSnapshot()
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if !okSnap || turn != 1 || snapPath != "snapshot-000001.json.zst" {
		t.Fatalf("latest snapshot = %d %q %v", turn, snapPath, okSnap)
	}
}

func TestRecordTurn_ReplacesOnSameTurn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.RecordTurn(5, "first", 1); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := db.RecordTurn(5, "second", 1); err != nil {
		t.Fatalf("RecordTurn: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.TurnDigest(5)
	if err != nil {
		t.Fatalf("TurnDigest: %v", err)
	}
	if got != "second" {
		t.Fatalf("digest = %q, want the replacement", got)
	}
}

func TestTurnDigest_MissingTurn(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := db.TurnDigest(99); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestRecordAfterClose(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := db.RecordTurn(0, "late", 0); err == nil {
		t.Fatal("RecordTurn after Close succeeded")
	}
}
