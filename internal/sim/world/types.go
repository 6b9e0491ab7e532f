// Package world holds the canonical simulation state, the closed event
// vocabulary, and the pure validate/apply pipeline that advances it.
package world

import "math"

// Pos is a map cell position. Z is optional elevation.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z,omitempty"`
}

// CellDist is the euclidean distance between two positions in map cells.
func CellDist(a, b Pos) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Actor kinds.
const (
	ActorPlayer = "player"
	ActorNPC    = "npc"
)

// Proposer classes recorded on event stamps.
const (
	ProposerPlayer     = "player"
	ProposerGameMaster = "gm"
	ProposerSystem     = "system"
)
