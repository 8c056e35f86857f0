package main

import "fmt"

// HexCoord is an axial coordinate on the hex grid. The third cube
// coordinate is implicit: s = -q - r.
type HexCoord struct {
	Q int `json:"q" msgpack:"q"`
	R int `json:"r" msgpack:"r"`
}

// hexDirections are the six axial neighbor offsets, in fixed order.
var hexDirections = [6]HexCoord{
	{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1},
}

// Key returns the "q,r" map key for this coordinate.
func (h HexCoord) Key() string {
	return fmt.Sprintf("%d,%d", h.Q, h.R)
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Neighbors returns the six axially adjacent coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var out [6]HexCoord
	for i, d := range hexDirections {
		out[i] = HexCoord{h.Q + d.Q, h.R + d.R}
	}
	return out
}

// DistanceToCenter returns the hex distance from (0,0):
// (|q| + |q+r| + |r|) / 2.
func (h HexCoord) DistanceToCenter() int {
	return (abs(h.Q) + abs(h.Q+h.R) + abs(h.R)) / 2
}

// HexDistance returns the hex distance between two coordinates.
func HexDistance(a, b HexCoord) int {
	d := HexCoord{a.Q - b.Q, a.R - b.R}
	return d.DistanceToCenter()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
