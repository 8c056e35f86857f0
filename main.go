package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path (empty disables persistence)")
	flag.Parse()
	cfg.Addr = *addr
	cfg.DBPath = *dbPath

	var db *DB
	var cp *Checkpoint
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		cp = NewCheckpoint(db)
		defer cp.Stop()
	}

	game := NewGame(cfg.Game, db, cp)

	// Warm restart: overlay checkpointed ownership, or seed the store
	// from the freshly generated map on first run.
	if db != nil {
		rows, err := db.LoadTiles()
		if err != nil {
			log.Printf("tile load error: %v", err)
		} else if len(rows) == 0 {
			if err := cp.Seed(game.grid); err != nil {
				log.Printf("tile seed error: %v", err)
			}
		} else {
			n := game.RestoreTiles(rows)
			log.Printf("restored %d tiles from checkpoint", n)
		}
	}

	hub := NewHub(game, db)
	go hub.Run()

	mux := SetupRoutes(hub, cfg)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s (map radius %d, %d tiles)",
			cfg.Addr, cfg.Game.Radius, len(game.grid.Tiles))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	game.StopTimers()
	server.Close()
}
