package engine

import (
	"math"

	"github.com/classlab/gerrymander/internal/grid"
)

type Score struct {
	BaselineWins int
	CurrentWins  int
	Percent      int
}

// BaselineWins counts column-majority wins for the given party: the outcome
// of a naive partition into 6 vertical districts, before any gerrymandering.
// This deliberately uses a different partition shape than gameplay does; the
// gap between the two is the whole point of the exercise.
func BaselineWins(g *grid.Grid, party int) int {
	wins := 0
	for c := 0; c < grid.Cols; c++ {
		mine := 0
		for r := 0; r < grid.Rows; r++ {
			side, _ := g.Side(r*grid.Cols + c)
			if side == party {
				mine++
			}
		}
		if mine >= WinThreshold {
			wins++
		}
	}
	return wins
}

// CurrentWins counts committed districts won by the engine's party.
func (e *Engine) CurrentWins() int {
	wins := 0
	for _, d := range e.districts {
		if d.Winner == e.party {
			wins++
		}
	}
	return wins
}

// Score reports the round score so far. Percent is the improvement over the
// baseline as a share of the 6 district slots, clamped so the player is never
// penalized for doing worse than the baseline.
func (e *Engine) Score() Score {
	diff := e.CurrentWins() - e.baseline
	if diff < 0 {
		diff = 0
	}
	pct := int(math.Round(float64(diff) / float64(DistrictSlots) * 100))
	return Score{
		BaselineWins: e.baseline,
		CurrentWins:  e.CurrentWins(),
		Percent:      pct,
	}
}
