package runner

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"gridfall.ai/internal/protocol"
	"gridfall.ai/internal/sim/tuning"
	"gridfall.ai/internal/sim/world"
)

func testRunner(t *testing.T, w *world.World) *Runner {
	t.Helper()
	r, err := New(w, Config{
		Logger:      log.New(io.Discard, "", 0),
		TurnTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestWorldConfig_MapsTuning(t *testing.T) {
	tune := tuning.Defaults()
	tune.MaxTalkDistance = 25
	tune.DefaultMaxHP = 30
	tune.ContractMinExpiry = 2
	tune.ContractMaxExpiry = 8

	cfg := WorldConfig(tune, 42)
	if cfg.MaxTalkDistance != 25 || cfg.DefaultMaxHP != 30 || cfg.Seed != 42 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ContractMinExpiry != 2 || cfg.ContractMaxExpiry != 8 {
		t.Fatalf("contract bounds lost: %+v", cfg)
	}
	if cfg.DefaultMovementRange != 5 || cfg.DefaultViewDistance != 8 || cfg.LOSRange != 20 {
		t.Fatalf("untouched defaults lost: %+v", cfg)
	}
}

func TestEventWatermark_HeldWhenKnowledgeDropped(t *testing.T) {
	w := testWorld(t, 5, 1)
	c := addChar(t, w, "c", world.Vec2{X: 0, Y: 0})
	addChar(t, w, "other", world.Vec2{X: 4, Y: 0})
	w.Events = append(w.Events, &world.GameEvent{
		Turn:        0,
		Description: "other picked up a shiv",
		WitnessIDs:  []string{"c"},
	})
	r := testRunner(t, w)
	ctx := context.Background()

	// A session whose outbound buffer is full: the KNOWLEDGE send fails and
	// the client is dropped. The unseen event must stay behind the watermark.
	blocked := &session{
		id:          "s_blocked",
		characterID: c.ID,
		acts:        make(chan protocol.ActMsg),
		out:         make(chan any),
	}
	r.sessions[c.ID] = blocked
	if err := r.runCharacterTurn(ctx, c); err != nil {
		t.Fatalf("runCharacterTurn: %v", err)
	}
	if r.sessions[c.ID] != nil {
		t.Fatal("blocked session should have been dropped")
	}
	if r.eventMark[c.ID] != 0 {
		t.Fatalf("watermark = %d after a dropped send, want 0", r.eventMark[c.ID])
	}

	// A healthy session reconnects: the event arrives in its first KNOWLEDGE
	// and only then does the watermark advance.
	out := make(chan any, 4)
	acts := make(chan protocol.ActMsg, 1)
	acts <- protocol.ActMsg{Turn: w.Turn, Action: protocol.ActReq{Kind: "wait"}}
	r.sessions[c.ID] = &session{id: "s_ok", characterID: c.ID, acts: acts, out: out}
	if err := r.runCharacterTurn(ctx, c); err != nil {
		t.Fatalf("runCharacterTurn: %v", err)
	}

	know, okMsg := (<-out).(protocol.KnowledgeMsg)
	if !okMsg {
		t.Fatal("first outbound message is not KNOWLEDGE")
	}
	if len(know.Events) != 1 || know.Events[0].Description != "other picked up a shiv" {
		t.Fatalf("redelivered events = %+v", know.Events)
	}
	if r.eventMark[c.ID] < 1 {
		t.Fatalf("watermark = %d after a delivered KNOWLEDGE, want it advanced", r.eventMark[c.ID])
	}
}
