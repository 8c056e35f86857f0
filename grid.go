package main

import "math"

// Team identifiers. TeamNone doubles as "neutral" for tile ownership
// and "spectating, no committed team" for players.
type Team int

const (
	TeamNone Team = 0
	TeamRed  Team = 1
	TeamBlue Team = 2
)

// Name returns the wire name for a team.
func (t Team) Name() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	}
	return "neutral"
}

// TeamFromName parses a wire/database team name.
func TeamFromName(s string) Team {
	switch s {
	case "red":
		return TeamRed
	case "blue":
		return TeamBlue
	}
	return TeamNone
}

// Opponent returns the opposing team, or TeamNone for neutral.
func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	}
	return TeamNone
}

// Tile is one hex cell of the map.
type Tile struct {
	Coord  HexCoord
	Owner  Team
	Clicks int // capture progress by the current attacker(s)
}

// Grid owns the tile map for one match. All queries are pure reads;
// callers serialize mutation through Game.
type Grid struct {
	Radius int
	Tiles  map[string]*Tile
}

// RedBase and BlueBase return the fixed base coordinates for a radius.
func RedBase(radius int) HexCoord  { return HexCoord{-radius, 0} }
func BlueBase(radius int) HexCoord { return HexCoord{radius, 0} }

// NewGrid generates the hexagonal region of the given radius:
// all (q,r) with max(|q|,|r|,|q+r|) <= radius, 3R²+3R+1 tiles in total.
// Every tile starts neutral except the two bases.
func NewGrid(radius int) *Grid {
	g := &Grid{
		Radius: radius,
		Tiles:  make(map[string]*Tile, 3*radius*radius+3*radius+1),
	}
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			if abs(q+r) > radius {
				continue
			}
			c := HexCoord{q, r}
			g.Tiles[c.Key()] = &Tile{Coord: c}
		}
	}
	g.Tiles[RedBase(radius).Key()].Owner = TeamRed
	g.Tiles[BlueBase(radius).Key()].Owner = TeamBlue
	return g
}

// Tile returns the tile at c, or nil if c is outside the map.
func (g *Grid) Tile(c HexCoord) *Tile {
	return g.Tiles[c.Key()]
}

// BaseFor returns the base coordinate for a team.
func (g *Grid) BaseFor(team Team) HexCoord {
	if team == TeamBlue {
		return BlueBase(g.Radius)
	}
	return RedBase(g.Radius)
}

// HasFriendlyNeighbor reports whether any of the six neighbors of c
// is an existing tile owned by team.
func (g *Grid) HasFriendlyNeighbor(c HexCoord, team Team) bool {
	for _, n := range c.Neighbors() {
		if t := g.Tiles[n.Key()]; t != nil && t.Owner == team {
			return true
		}
	}
	return false
}

// CaptureRequirement returns the click count needed to take the tile at c
// for the given attacking team. Edge tiles are cheap, center tiles
// expensive; enemy-held tiles cost 1.7x over neutral ones.
func (g *Grid) CaptureRequirement(c HexCoord, attacker Team) int {
	t := g.Tiles[c.Key()]
	if t == nil {
		return 0
	}
	d := c.DistanceToCenter()
	base := int(math.Floor(25 - 1.5*float64(d)))
	if base < 5 {
		base = 5
	}
	if t.Owner != TeamNone && t.Owner != attacker {
		return int(math.Floor(float64(base) * 1.7))
	}
	return base
}
