package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gridfall.ai/internal/sim/level"
	"gridfall.ai/internal/sim/runner"
	"gridfall.ai/internal/sim/tuning"
	"gridfall.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "dice seed")
		levelPath  = flag.String("level", "./configs/levels/prison.yaml", "level file")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "./data", "runtime data directory (empty disables persistence)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

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
	w.SetLogger(logger)
	logger.Printf("level %q loaded: %dx%d, %d characters", lv.Name, w.Width, w.Height, len(w.Characters))

	dir := strings.TrimSpace(*dataDir)
	if dir != "" {
		dir = filepath.Join(dir, "worlds", *worldID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatalf("data dir: %v", err)
		}
	}

	r, err := runner.New(w, runner.Config{
		WorldID:     *worldID,
		DataDir:     dir,
		Tuning:      &tune,
		Logger:      logger,
		TurnTimeout: time.Duration(tune.TurnTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		logger.Fatalf("runner: %v", err)
	}

	srv, err := ws.NewServer(r, logger)
	if err != nil {
		logger.Fatalf("ws server: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	httpSrv := &http.Server{Addr: *addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Printf("shutting down")
	case err := <-runErr:
		if err != nil && err != context.Canceled {
			logger.Printf("runner stopped: %v", err)
		} else {
			logger.Printf("simulation finished")
		}
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = httpSrv.Shutdown(shutCtx)
}
