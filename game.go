package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Phase is the match lifecycle state
type Phase int

const (
	PhaseWaiting   Phase = 0 // no ready players, map quiescent
	PhaseLobby     Phase = 1 // ready queue accumulating
	PhaseCountdown Phase = 2 // teams assigned, input frozen
	PhaseActive    Phase = 3 // moves/captures accepted, scoring running
	PhaseGameOver  Phase = 4 // winner broadcast, awaiting reset
	PhaseResetting Phase = 5 // full state regeneration in progress
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
}

// BinarySender is optionally implemented by clients that accept
// msgpack-encoded binary frames (the full map broadcast).
type BinarySender interface {
	SendBinary(data []byte)
}

// Player is one connected client's in-world entity
type Player struct {
	ID        string
	Name      string
	Pos       HexCoord
	Team      Team
	Playing   bool  // false = spectating
	AccountID int64 // 0 = guest
	Captures  int   // tiles flipped this match
}

// Status returns the wire name of the player's status
func (p *Player) Status() string {
	if p.Playing {
		return "playing"
	}
	return "spectating"
}

// Game holds the authoritative world for the single match this process
// runs: tile map, roster, scores, phase and ready queue. One mutex
// serializes every mutation — client events, countdown ticks and
// scoring ticks all enter through it, since nearly every operation
// touches multiple tiles or the roster as a unit.
type Game struct {
	mu         sync.Mutex
	cfg        GameConfig
	grid       *Grid
	players    map[string]*Player
	clients    map[string]Broadcaster // connection ID -> client
	readyQueue map[string]bool
	phase      Phase
	redScore   int
	blueScore  int
	lastTie    Team // previous tie-break pick, alternated
	matchStart time.Time

	countdownStop chan struct{}
	scoringStop   chan struct{}

	db         *DB
	checkpoint *Checkpoint
}

// NewGame creates the world for one process lifetime. db and cp may be
// nil in tests; gameplay never depends on them.
func NewGame(cfg GameConfig, db *DB, cp *Checkpoint) *Game {
	return &Game{
		cfg:        cfg,
		grid:       NewGrid(cfg.Radius),
		players:    make(map[string]*Player),
		clients:    make(map[string]Broadcaster),
		readyQueue: make(map[string]bool),
		phase:      PhaseWaiting,
		db:         db,
		checkpoint: cp,
	}
}

// RestoreTiles overlays checkpointed ownership onto the generated grid.
// Returns the number of rows applied. Unknown coordinates are ignored.
func (g *Game) RestoreTiles(rows []TileRow) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	applied := 0
	for _, row := range rows {
		t := g.grid.Tile(HexCoord{row.Q, row.R})
		if t == nil {
			continue
		}
		t.Owner = TeamFromName(row.Owner)
		t.Clicks = row.Clicks
		applied++
	}
	return applied
}

// AddConnection registers a new spectator for a connection identity and
// sends it the current world snapshot.
func (g *Game) AddConnection(id, name string, client Broadcaster) *Player {
	g.mu.Lock()
	p := &Player{ID: id, Name: name}
	g.players[id] = p
	g.clients[id] = client
	mapEnv := Envelope{T: MsgMapUpdate, Data: g.mapState()}
	scores := ScoreMsg{Red: g.redScore, Blue: g.blueScore}
	count := len(g.clients)
	g.mu.Unlock()

	client.SendJSON(mapEnv)
	client.SendJSON(Envelope{T: MsgScoreUpdate, Data: scores})
	g.broadcast(Envelope{T: MsgPlayerCount, Data: count})
	g.BroadcastRoster()
	return p
}

// RemoveConnection drops a player and its ready-queue membership. It
// never forces a phase transition by itself.
func (g *Game) RemoveConnection(id string) {
	g.mu.Lock()
	delete(g.players, id)
	delete(g.clients, id)
	delete(g.readyQueue, id)
	count := len(g.clients)
	g.mu.Unlock()

	g.broadcast(Envelope{T: MsgPlayerCount, Data: count})
	g.BroadcastRoster()
}

// SetAccount links an authenticated account to a connected player.
func (g *Game) SetAccount(id string, accountID int64, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.players[id]; ok {
		p.AccountID = accountID
		p.Name = username
	}
}

// HandleJoinRequest processes a request_join event. In Waiting/Lobby it
// enqueues the sender and starts the countdown once enough players are
// ready; in Countdown/Active it assigns a team immediately (late join).
func (g *Game) HandleJoinRequest(id string) {
	g.mu.Lock()
	p, ok := g.players[id]
	if !ok || p.Playing {
		g.mu.Unlock()
		return
	}

	switch g.phase {
	case PhaseWaiting, PhaseLobby:
		g.readyQueue[id] = true
		g.phase = PhaseLobby
		queued := len(g.readyQueue)
		if queued >= g.cfg.MinPlayers {
			for qid := range g.readyQueue {
				g.assignTeamLocked(qid)
			}
			g.readyQueue = make(map[string]bool)
			g.startCountdownLocked()
			g.mu.Unlock()
			g.BroadcastRoster()
			return
		}
		note := notificationText(queued, g.cfg.MinPlayers)
		g.mu.Unlock()
		g.broadcast(Envelope{T: MsgNotification, Data: note})

	case PhaseCountdown, PhaseActive:
		team := g.assignTeamLocked(id)
		name := p.Name
		g.mu.Unlock()
		g.broadcast(Envelope{T: MsgNotification, Data: name + " joined the " + team.Name() + " team"})
		g.BroadcastRoster()

	default:
		// GameOver/Resetting: the world is about to be regenerated
		client := g.clients[id]
		g.mu.Unlock()
		if client != nil {
			client.SendJSON(Envelope{T: MsgNotification, Data: "match is resetting, try again in a moment"})
		}
	}
}

// assignTeamLocked balances a player onto the smaller team, spawns it
// at that team's base and notifies it. Caller holds g.mu.
func (g *Game) assignTeamLocked(id string) Team {
	p, ok := g.players[id]
	if !ok {
		return TeamNone
	}

	red, blue := 0, 0
	for _, other := range g.players {
		if !other.Playing {
			continue
		}
		switch other.Team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}

	team := TeamRed
	switch {
	case red < blue:
		team = TeamRed
	case blue < red:
		team = TeamBlue
	default:
		// Exact tie: alternate with the previous tie pick so neither
		// team is starved by join order.
		if g.lastTie == TeamRed {
			team = TeamBlue
		}
		g.lastTie = team
	}

	p.Team = team
	p.Playing = true
	p.Pos = g.grid.BaseFor(team)
	p.Captures = 0

	if client, ok := g.clients[id]; ok {
		client.SendJSON(Envelope{T: MsgTeamAssigned, Data: team.Name()})
	}
	return team
}

// HandleMove validates and applies a relocation request. Every failed
// precondition is a silent no-op: the server is permissive but
// authoritative, and there is no error channel for rejected actions.
func (g *Game) HandleMove(id string, target HexCoord) {
	g.mu.Lock()
	p, ok := g.players[id]
	if !ok || !p.Playing || g.phase != PhaseActive {
		g.mu.Unlock()
		return
	}
	tile := g.grid.Tile(target)
	if tile == nil || HexDistance(p.Pos, target) != 1 {
		g.mu.Unlock()
		return
	}
	// A team may only expand along a frontier touching its own
	// territory, while moving freely inside land it already holds.
	if tile.Owner != p.Team && !g.grid.HasFriendlyNeighbor(target, p.Team) {
		g.mu.Unlock()
		return
	}
	p.Pos = target
	g.mu.Unlock()

	g.BroadcastRoster()
}

// HandleCapture processes one capture click on the sender's current
// tile. Clicks from teammates accumulate on the same counter, so a
// team can out-pace the enemy multiplier collectively.
func (g *Game) HandleCapture(id string) {
	g.mu.Lock()
	p, ok := g.players[id]
	if !ok || !p.Playing || g.phase != PhaseActive {
		g.mu.Unlock()
		return
	}
	tile := g.grid.Tile(p.Pos)
	if tile == nil || tile.Owner == p.Team {
		g.mu.Unlock()
		return
	}

	required := g.grid.CaptureRequirement(p.Pos, p.Team)
	tile.Clicks++

	if tile.Clicks >= required {
		tile.Owner = p.Team
		tile.Clicks = 0
		p.Captures++
		mapEnv := Envelope{T: MsgMapUpdate, Data: g.mapState()}
		coord := tile.Coord
		owner := p.Team.Name()
		g.mu.Unlock()

		g.broadcastMap(mapEnv)
		if g.checkpoint != nil {
			g.checkpoint.Upsert(coord.Q, coord.R, owner)
		}
		return
	}

	progress := TileProgressMsg{Key: p.Pos.Key(), Clicks: tile.Clicks, Required: required}
	g.mu.Unlock()
	// Incremental update instead of a full map broadcast — bounds
	// bandwidth for contested tiles under rapid clicking.
	g.broadcast(Envelope{T: MsgTileProgress, Data: progress})
}

// Phase returns the current match phase
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Scores returns the cumulative team scores
func (g *Game) Scores() (red, blue int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.redScore, g.blueScore
}

// PlayerCount returns the number of connected clients
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// mapState snapshots the tile map for broadcast. Caller holds g.mu.
func (g *Game) mapState() MapState {
	state := make(MapState, len(g.grid.Tiles))
	for key, t := range g.grid.Tiles {
		state[key] = TileState{
			Q:      t.Coord.Q,
			R:      t.Coord.R,
			Owner:  t.Owner.Name(),
			Clicks: t.Clicks,
		}
	}
	return state
}

// rosterState snapshots the player roster. Caller holds g.mu.
func (g *Game) rosterState() []PlayerState {
	roster := make([]PlayerState, 0, len(g.players))
	for _, p := range g.players {
		roster = append(roster, PlayerState{
			ID:     p.ID,
			Name:   p.Name,
			Q:      p.Pos.Q,
			R:      p.Pos.R,
			Team:   p.Team.Name(),
			Status: p.Status(),
		})
	}
	return roster
}

// BroadcastRoster sends the full player roster to everyone
func (g *Game) BroadcastRoster() {
	g.mu.Lock()
	roster := g.rosterState()
	g.mu.Unlock()
	g.broadcast(Envelope{T: MsgPlayerUpdate, Data: roster})
}

// BroadcastMap sends the full tile map to everyone
func (g *Game) BroadcastMap() {
	g.mu.Lock()
	env := Envelope{T: MsgMapUpdate, Data: g.mapState()}
	g.mu.Unlock()
	g.broadcastMap(env)
}

// broadcast sends a JSON message to all connected clients
func (g *Game) broadcast(msg Envelope) {
	g.mu.Lock()
	clients := make([]Broadcaster, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		c.SendJSON(msg)
	}
}

// broadcastMap sends the full map as a msgpack binary frame where the
// client supports it, falling back to JSON. The map is by far the
// largest payload, so it gets the compact encoding.
func (g *Game) broadcastMap(env Envelope) {
	bin, err := msgpack.Marshal(env)
	if err != nil {
		log.Printf("msgpack marshal error: %v", err)
		bin = nil
	}

	g.mu.Lock()
	clients := make([]Broadcaster, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		if bs, ok := c.(BinarySender); ok && bin != nil {
			bs.SendBinary(bin)
			continue
		}
		c.SendJSON(env)
	}
}

func notificationText(queued, needed int) string {
	return fmt.Sprintf("%d/%d players ready", queued, needed)
}
