package main

import (
	"testing"
	"time"
)

func TestScoringTickIncome(t *testing.T) {
	g := NewGame(testConfig(), nil, nil)
	_, mock := addTestPlayer(g, "a1")
	g.phase = PhaseActive

	// Fresh map: each base sits at distance 4, beyond the bonus ring,
	// so each team earns exactly one outer tile's income.
	g.scoringTick()
	red, blue := g.Scores()
	if red != OuterValue || blue != OuterValue {
		t.Errorf("expected %d/%d from the bases, got %d/%d", OuterValue, OuterValue, red, blue)
	}

	// Give red k inner and m outer extra tiles.
	g.grid.Tile(HexCoord{0, 0}).Owner = TeamRed  // d=0, inner
	g.grid.Tile(HexCoord{1, 0}).Owner = TeamRed  // d=1, inner
	g.grid.Tile(HexCoord{0, -3}).Owner = TeamRed // d=3, outer

	g.scoringTick()
	red2, blue2 := g.Scores()
	wantRed := red + 2*InnerValue + OuterValue + OuterValue // extras plus the base
	if red2 != wantRed {
		t.Errorf("expected red %d, got %d", wantRed, red2)
	}
	if blue2 != blue+OuterValue {
		t.Errorf("expected blue %d, got %d", blue+OuterValue, blue2)
	}

	if len(mock.ofType(MsgScoreUpdate)) != 2 {
		t.Errorf("each tick should broadcast scores once, got %d", len(mock.ofType(MsgScoreUpdate)))
	}
}

func TestScoringTickIgnoresNeutralAndInactive(t *testing.T) {
	g := NewGame(testConfig(), nil, nil)
	g.phase = PhaseWaiting

	g.scoringTick()
	red, blue := g.Scores()
	if red != 0 || blue != 0 {
		t.Error("scoring should be a no-op outside the active phase")
	}
}

func TestWinThresholdFiresOnce(t *testing.T) {
	cfg := testConfig()
	cfg.WinScore = OuterValue // one base tick crosses the threshold
	g := NewGame(cfg, nil, nil)
	_, mock := addTestPlayer(g, "a1")
	g.phase = PhaseActive

	g.scoringTick()
	if g.Phase() != PhaseGameOver {
		t.Fatalf("expected game over, got phase %d", g.Phase())
	}

	// Later ticks must be no-ops: the threshold fired already.
	g.scoringTick()
	g.scoringTick()

	if n := len(mock.ofType(MsgGameOver)); n != 1 {
		t.Errorf("game_over should fire exactly once, got %d", n)
	}
}

func TestWinnerIsHigherScoringTeam(t *testing.T) {
	cfg := testConfig()
	cfg.WinScore = 1000
	g := NewGame(cfg, nil, nil)
	_, mock := addTestPlayer(g, "a1")
	g.phase = PhaseActive

	// Blue holds an extra outer tile and wins the crossing tick.
	g.grid.Tile(HexCoord{0, 3}).Owner = TeamBlue
	g.scoringTick()

	over := mock.ofType(MsgGameOver)
	if len(over) != 1 {
		t.Fatalf("expected one game_over, got %d", len(over))
	}
	if over[0].Data != "blue" {
		t.Errorf("expected blue to win, got %v", over[0].Data)
	}
}

func TestResetRegeneratesWorld(t *testing.T) {
	g := NewGame(testConfig(), nil, nil)
	p, mock := addTestPlayer(g, "a1")
	p.Playing = true
	p.Team = TeamRed
	p.Pos = HexCoord{1, 1}
	p.Captures = 5
	g.phase = PhaseGameOver
	g.redScore = 300000
	g.blueScore = 120000
	g.readyQueue["a1"] = true
	g.grid.Tile(HexCoord{0, 0}).Owner = TeamRed
	g.grid.Tile(HexCoord{1, 0}).Clicks = 7

	g.resetMatch()

	if g.Phase() != PhaseWaiting {
		t.Errorf("expected waiting phase after reset, got %d", g.Phase())
	}
	red, blue := g.Scores()
	if red != 0 || blue != 0 {
		t.Error("scores should reset to zero at map regeneration")
	}
	if len(g.readyQueue) != 0 {
		t.Error("ready queue should be cleared")
	}
	if p.Playing || p.Team != TeamNone || p.Pos != (HexCoord{}) {
		t.Error("players should return to spectating at the origin")
	}
	for key, tile := range g.grid.Tiles {
		if tile.Clicks != 0 {
			t.Errorf("tile %s should have zero progress after reset", key)
		}
		isBase := tile.Coord == RedBase(4) || tile.Coord == BlueBase(4)
		if !isBase && tile.Owner != TeamNone {
			t.Errorf("tile %s should be neutral after reset", key)
		}
	}
	if len(mock.ofType(MsgResetGame)) != 1 {
		t.Error("reset should broadcast reset_game")
	}
}

func TestCountdownSequence(t *testing.T) {
	prev := CountdownInterval
	CountdownInterval = 5 * time.Millisecond
	defer func() { CountdownInterval = prev }()

	g := NewGame(testConfig(), nil, nil)
	defer g.StopTimers()
	_, mock := addTestPlayer(g, "a1")

	g.mu.Lock()
	g.startCountdownLocked()
	g.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for g.Phase() != PhaseActive {
		if time.Now().After(deadline) {
			t.Fatal("countdown never reached the active phase")
		}
		time.Sleep(time.Millisecond)
	}

	// Give the banner-clear beat a moment.
	time.Sleep(20 * time.Millisecond)

	var seq []interface{}
	for _, env := range mock.ofType(MsgCountdown) {
		seq = append(seq, env.Data)
	}
	if len(seq) < 4 {
		t.Fatalf("expected at least 3,2,1,GO!, got %v", seq)
	}
	if seq[0] != 3 || seq[1] != 2 || seq[2] != 1 {
		t.Errorf("countdown should tick 3,2,1, got %v", seq[:3])
	}
	if seq[3] != "GO!" {
		t.Errorf(`expected "GO!" after the final tick, got %v`, seq[3])
	}
}

func TestCountdownRestartCancelsPrevious(t *testing.T) {
	g := NewGame(testConfig(), nil, nil)
	defer g.StopTimers()

	g.mu.Lock()
	g.startCountdownLocked()
	first := g.countdownStop
	g.startCountdownLocked()
	second := g.countdownStop
	g.mu.Unlock()

	if first == second {
		t.Fatal("restart should create a fresh stop channel")
	}
	select {
	case <-first:
		// closed, as expected
	default:
		t.Error("previous countdown should be cancelled on restart")
	}
}

func TestScoringRestartCancelsPrevious(t *testing.T) {
	g := NewGame(testConfig(), nil, nil)
	defer g.StopTimers()

	g.mu.Lock()
	g.startScoringLocked()
	first := g.scoringStop
	g.startScoringLocked()
	second := g.scoringStop
	g.mu.Unlock()

	if first == second {
		t.Fatal("restart should create a fresh stop channel")
	}
	select {
	case <-first:
	default:
		t.Error("previous scoring loop should be cancelled on restart")
	}
}
