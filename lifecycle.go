package main

import (
	"log"
	"time"
)

// Timer literals for the match lifecycle. Variables rather than
// constants so the integration tests can shrink them.
var (
	CountdownInterval = 1 * time.Second
	ScoringInterval   = 5 * time.Second
	ResetDelay        = 5 * time.Second
)

const (
	CountdownFrom = 3
	InnerValue    = 1000 // per inner tile per scoring tick
	OuterValue    = 500  // per outer tile per scoring tick
)

// startCountdownLocked flips the phase to Countdown and launches the
// countdown timer, cancelling any previous instance so two loops never
// run at once. Caller holds g.mu.
func (g *Game) startCountdownLocked() {
	if g.countdownStop != nil {
		close(g.countdownStop)
	}
	g.countdownStop = make(chan struct{})
	g.phase = PhaseCountdown
	go g.runCountdown(g.countdownStop)
}

// runCountdown emits 3, 2, 1 at one-second intervals, then "GO!", then
// null to clear the banner, and hands the match to the scoring loop.
func (g *Game) runCountdown(stop chan struct{}) {
	g.broadcast(Envelope{T: MsgCountdown, Data: CountdownFrom})

	ticker := time.NewTicker(CountdownInterval)
	defer ticker.Stop()

	remaining := CountdownFrom
	for {
		select {
		case <-ticker.C:
			remaining--
			if remaining > 0 {
				g.broadcast(Envelope{T: MsgCountdown, Data: remaining})
				continue
			}
			g.mu.Lock()
			if g.phase != PhaseCountdown {
				g.mu.Unlock()
				return
			}
			g.phase = PhaseActive
			g.matchStart = time.Now()
			g.startScoringLocked()
			g.mu.Unlock()
			g.broadcast(Envelope{T: MsgCountdown, Data: "GO!"})

			// One more beat, then clear the banner.
			select {
			case <-ticker.C:
				g.broadcast(Envelope{T: MsgCountdown, Data: nil})
			case <-stop:
			}
			return

		case <-stop:
			return
		}
	}
}

// startScoringLocked launches the passive-income loop, cancelling any
// previous instance. Caller holds g.mu.
func (g *Game) startScoringLocked() {
	if g.scoringStop != nil {
		close(g.scoringStop)
	}
	g.scoringStop = make(chan struct{})
	go g.runScoring(g.scoringStop)
}

// runScoring accrues per-tile income into team scores on a fixed
// period while the match is active.
func (g *Game) runScoring(stop chan struct{}) {
	ticker := time.NewTicker(ScoringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.scoringTick()
		case <-stop:
			return
		}
	}
}

// scoringTick tallies owned tiles into team scores, broadcasts the
// totals and evaluates the win condition. The loop keeps no state of
// its own between ticks beyond the cumulative scores on the Game.
func (g *Game) scoringTick() {
	g.mu.Lock()
	if g.phase != PhaseActive {
		g.mu.Unlock()
		return
	}

	redGain, blueGain := 0, 0
	for _, t := range g.grid.Tiles {
		if t.Owner == TeamNone {
			continue
		}
		value := OuterValue
		if t.Coord.DistanceToCenter() <= g.cfg.CenterBonusDist {
			value = InnerValue
		}
		if t.Owner == TeamRed {
			redGain += value
		} else {
			blueGain += value
		}
	}
	g.redScore += redGain
	g.blueScore += blueGain
	scores := ScoreMsg{Red: g.redScore, Blue: g.blueScore}

	var winner Team
	if g.redScore >= g.cfg.WinScore || g.blueScore >= g.cfg.WinScore {
		winner = TeamRed
		if g.blueScore > g.redScore {
			winner = TeamBlue
		}
	}
	if winner != TeamNone {
		g.finishMatchLocked(winner)
		g.mu.Unlock()
		g.broadcast(Envelope{T: MsgScoreUpdate, Data: scores})
		g.broadcast(Envelope{T: MsgGameOver, Data: winner.Name()})
		return
	}
	g.mu.Unlock()

	g.broadcast(Envelope{T: MsgScoreUpdate, Data: scores})
}

// matchResult is the snapshot handed to the background recorder at
// game over, taken before the roster is wiped by the reset.
type matchResult struct {
	winner   Team
	duration time.Duration
	players  []matchPlayer
}

type matchPlayer struct {
	accountID int64
	team      Team
	captures  int
}

// finishMatchLocked transitions to GameOver, stops the scoring loop,
// schedules the reset and dispatches the persistence work. The win
// transition fires at most once per threshold crossing: the phase flip
// makes every later scoring tick a no-op. Caller holds g.mu.
func (g *Game) finishMatchLocked(winner Team) {
	g.phase = PhaseGameOver
	if g.scoringStop != nil {
		close(g.scoringStop)
		g.scoringStop = nil
	}

	result := matchResult{winner: winner, duration: time.Since(g.matchStart)}
	for _, p := range g.players {
		if p.Playing && p.AccountID != 0 {
			result.players = append(result.players, matchPlayer{
				accountID: p.AccountID,
				team:      p.Team,
				captures:  p.Captures,
			})
		}
	}

	// Best-effort side effects off the game loop: wipe the tile
	// checkpoint and record the match outcome.
	go g.recordMatch(result)

	time.AfterFunc(ResetDelay, g.resetMatch)
}

// recordMatch persists the outcome and clears checkpointed tiles.
// Failures are logged for operators and never surface to players.
func (g *Game) recordMatch(result matchResult) {
	if g.db == nil {
		return
	}
	if err := g.db.DeleteAllTiles(); err != nil {
		log.Printf("tile wipe error: %v", err)
	}
	matchID, err := g.db.RecordMatch(int(result.winner), result.duration.Seconds())
	if err != nil {
		log.Printf("match record error: %v", err)
		return
	}
	for _, mp := range result.players {
		won := mp.team == result.winner
		if err := g.db.RecordMatchPlayer(matchID, mp.accountID, int(mp.team), mp.captures); err != nil {
			log.Printf("match player record error: %v", err)
		}
		if err := g.db.UpdateStatsAfterMatch(mp.accountID, mp.captures, won); err != nil {
			log.Printf("stats update error: %v", err)
		}
	}
}

// resetMatch regenerates the world from scratch: fresh map, zero
// scores, everyone back to spectating, empty ready queue. Clients get
// a reset signal so they return to their lobby view.
func (g *Game) resetMatch() {
	g.mu.Lock()
	g.phase = PhaseResetting
	g.grid = NewGrid(g.cfg.Radius)
	g.redScore = 0
	g.blueScore = 0
	g.readyQueue = make(map[string]bool)
	for _, p := range g.players {
		p.Team = TeamNone
		p.Playing = false
		p.Pos = HexCoord{}
		p.Captures = 0
	}
	g.phase = PhaseWaiting
	mapEnv := Envelope{T: MsgMapUpdate, Data: g.mapState()}
	g.mu.Unlock()

	g.broadcast(Envelope{T: MsgResetGame, Data: nil})
	g.broadcastMap(mapEnv)
	g.BroadcastRoster()
	g.broadcast(Envelope{T: MsgScoreUpdate, Data: ScoreMsg{}})

	// Re-seed the checkpoint with the fresh bases.
	if g.checkpoint != nil {
		g.checkpoint.Upsert(RedBase(g.cfg.Radius).Q, RedBase(g.cfg.Radius).R, TeamRed.Name())
		g.checkpoint.Upsert(BlueBase(g.cfg.Radius).Q, BlueBase(g.cfg.Radius).R, TeamBlue.Name())
	}
}

// StopTimers cancels any running countdown or scoring loop (shutdown).
func (g *Game) StopTimers() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.countdownStop != nil {
		close(g.countdownStop)
		g.countdownStop = nil
	}
	if g.scoringStop != nil {
		close(g.scoringStop)
		g.scoringStop = nil
	}
}
