package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pocketpet.app/internal/persistence/journal"
	"pocketpet.app/internal/persistence/statedb"
	"pocketpet.app/internal/sim/catalogs"
	"pocketpet.app/internal/sim/companion"
	"pocketpet.app/internal/sim/tuning"
	"pocketpet.app/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8088", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs loaded: %d items, %d activities, %d pets, %d events",
		len(cats.Items.ByID), len(cats.Activities.ByID), len(cats.Pets.Names), len(cats.Events.ByID))

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	db, err := statedb.Open(filepath.Join(*dataDir, "companion.db"))
	if err != nil {
		logger.Fatalf("open state db: %v", err)
	}
	defer db.Close()

	jrn := journal.New(filepath.Join(*dataDir, "journal"), "events")
	defer jrn.Close()

	engine, err := companion.New(companion.Options{
		Catalogs: cats,
		Tuning:   tune,
		Store:    db,
		Journal:  jrn,
		Logger:   log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("start engine: %v", err)
	}

	srv := ws.NewServer(engine, db, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/history", func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.RecentSettlements(50)
		if err != nil {
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	httpSrv := &http.Server{Addr: *addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tick loop: drives decay, settlement, autonomy.
	interval := time.Duration(tune.TickIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				evs := engine.Tick(now)
				for _, ev := range evs {
					logger.Printf("tick event: %s %s", ev.Kind, ev.Message)
					if err := db.RecordSettlement(now, ev.Kind, ev.Activity, ev.Coins, ev.Exp, ev.Message); err != nil {
						logger.Printf("record settlement: %v", err)
					}
				}
				srv.Broadcast(evs)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = httpSrv.Shutdown(shutCtx)
	}()

	logger.Printf("listening on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http: %v", err)
	}
	logger.Printf("bye")
}
