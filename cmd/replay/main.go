package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gridfall.ai/internal/persistence/gamelog"
	"gridfall.ai/internal/persistence/indexdb"
	"gridfall.ai/internal/sim/level"
	"gridfall.ai/internal/sim/runner"
	"gridfall.ai/internal/sim/tuning"
	"gridfall.ai/internal/sim/world"
)

// replay rebuilds a world from the level file and re-executes the recorded
// turn log, verifying per-turn state digests against the index db. Any
// divergence means the engine is no longer deterministic for that log.
func main() {
	var (
		levelPath  = flag.String("level", "./configs/levels/prison.yaml", "level file the run started from")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning.yaml the run started with")
		logPath    = flag.String("log", "./data/worlds/world_1/turns.jsonl.zst", "turn log")
		indexPath  = flag.String("index", "./data/worlds/world_1/index.db", "index db with recorded digests (empty skips verification)")
		seed       = flag.Int64("seed", 1337, "dice seed the run started with")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	lv, err := level.Load(*levelPath)
	if err != nil {
		logger.Fatalf("load level: %v", err)
	}
	w, err := lv.Build(runner.WorldConfig(tune, *seed))
	if err != nil {
		logger.Fatalf("build level: %v", err)
	}

	var idx *indexdb.DB
	if *indexPath != "" {
		idx, err = indexdb.Open(*indexPath)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	r, err := gamelog.NewReader(*logPath)
	if err != nil {
		logger.Fatalf("open log: %v", err)
	}
	defer r.Close()

	start := time.Now()
	records, verified := 0, 0
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Fatalf("read log: %v", err)
		}
		for w.Turn < rec.Turn {
			if err := finishTurn(w, idx, &verified); err != nil {
				logger.Fatalf("turn %d: %v", w.Turn, err)
			}
		}
		if err := apply(w, rec); err != nil {
			logger.Fatalf("record %d (turn %d, %s): %v", records, rec.Turn, rec.CharacterID, err)
		}
		records++
	}
	if err := finishTurn(w, idx, &verified); err != nil {
		logger.Fatalf("turn %d: %v", w.Turn, err)
	}

	logger.Printf("replayed %d actions over %d turns in %s, %d digests verified",
		records, w.Turn, time.Since(start).Round(time.Millisecond), verified)
}

func apply(w *world.World, rec gamelog.TurnRecord) error {
	c := w.Character(rec.CharacterID)
	if c == nil {
		return fmt.Errorf("unknown character %q", rec.CharacterID)
	}
	action, err := runner.DecodeAction(rec.Action)
	if err != nil {
		return err
	}
	w.BeginCharacterTurn(c)
	res := world.ExecuteAction(w, c, action)
	if res.OK != rec.OK || res.Code != rec.Code {
		return fmt.Errorf("result diverged: recorded ok=%v code=%q, replayed ok=%v code=%q",
			rec.OK, rec.Code, res.OK, res.Code)
	}
	if res.OK {
		runner.ApplyContractOutcome(w, c, action, rec.ContractID)
	}
	w.EndCharacterTurn(c)
	return nil
}

func finishTurn(w *world.World, idx *indexdb.DB, verified *int) error {
	runner.ExpireContracts(w)
	w.AdvanceTurn()
	if idx == nil {
		return nil
	}
	want, err := idx.TurnDigest(w.Turn)
	if err != nil {
		// Not every turn is necessarily indexed (e.g. the run was cut off).
		return nil
	}
	if got := w.StateDigest(); got != want {
		return fmt.Errorf("digest mismatch: recorded %s, replayed %s", want, got)
	}
	*verified++
	return nil
}
