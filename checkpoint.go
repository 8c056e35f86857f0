package main

import (
	"log"
	"sync"
	"time"
)

const (
	checkpointBufSize    = 1024
	checkpointBatchLimit = 64
	checkpointFlushEvery = 2 * time.Second
)

// Checkpoint is the fire-and-forget tile write-back. Gameplay enqueues
// ownership changes and never waits: the in-memory map is the source
// of truth and the store is a best-effort warm-restart convenience.
// A background goroutine batches writes into single transactions.
type Checkpoint struct {
	db      *DB
	updates chan TileRow
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewCheckpoint creates and starts the background writer
func NewCheckpoint(db *DB) *Checkpoint {
	cp := &Checkpoint{
		db:      db,
		updates: make(chan TileRow, checkpointBufSize),
		stop:    make(chan struct{}),
	}
	cp.wg.Add(1)
	go cp.writer()
	return cp
}

// Upsert enqueues an ownership change for async persistence. Never
// blocks: if the buffer is full the update is dropped rather than
// stalling the game loop.
func (cp *Checkpoint) Upsert(q, r int, owner string) {
	select {
	case cp.updates <- TileRow{Q: q, R: r, Owner: owner}:
	default:
	}
}

// Seed synchronously writes a whole grid snapshot (first boot with an
// empty store). Boot-time only, so blocking is fine here.
func (cp *Checkpoint) Seed(g *Grid) error {
	batch := make([]TileRow, 0, len(g.Tiles))
	for _, t := range g.Tiles {
		batch = append(batch, TileRow{
			Q:      t.Coord.Q,
			R:      t.Coord.R,
			Owner:  t.Owner.Name(),
			Clicks: t.Clicks,
		})
	}
	return cp.db.UpsertTiles(batch)
}

// Stop flushes pending updates and shuts the writer down
func (cp *Checkpoint) Stop() {
	close(cp.stop)
	cp.wg.Wait()
}

// writer batches queued updates and writes them to the store. A write
// failure is logged for operators and otherwise discarded; it never
// surfaces to gameplay.
func (cp *Checkpoint) writer() {
	defer cp.wg.Done()

	batch := make([]TileRow, 0, checkpointBatchLimit)
	ticker := time.NewTicker(checkpointFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case row := <-cp.updates:
			batch = append(batch, row)
			if len(batch) >= checkpointBatchLimit {
				cp.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				cp.flush(batch)
				batch = batch[:0]
			}
		case <-cp.stop:
			// Drain whatever is still queued
			close(cp.updates)
			for row := range cp.updates {
				batch = append(batch, row)
			}
			if len(batch) > 0 {
				cp.flush(batch)
			}
			return
		}
	}
}

func (cp *Checkpoint) flush(batch []TileRow) {
	if cp.db == nil {
		return
	}
	if err := cp.db.UpsertTiles(batch); err != nil {
		log.Printf("checkpoint: flush error: %v", err)
	}
}
