package engine

import (
	"errors"
	"slices"

	"github.com/classlab/gerrymander/internal/grid"
)

var ErrAlreadyAssigned = errors.New("cell already belongs to a district")
var ErrNotFound = errors.New("no such district")
var ErrNoGrid = errors.New("engine has no grid loaded")

const (
	// DistrictSize is odd, so a district never ties.
	DistrictSize = 5
	// DistrictSlots is how many districts tile the full grid.
	DistrictSlots = grid.CellCount / DistrictSize
	// WinThreshold is the strict majority of DistrictSize.
	WinThreshold = (DistrictSize + 1) / 2
)

type District struct {
	ID     int
	Winner int
	Cells  []int
}

// Engine turns drag-to-select cell picks into validated districts and keeps
// the round score. All methods mutate in place; callers serialize access (the
// session loop is the only caller in practice).
//
// Selection grows one adjacent cell at a time, so a committed district is
// connected by construction and needs no post-hoc connectivity check.
type Engine struct {
	grid      *grid.Grid
	party     int
	selection []int
	districts []District
	nextID    int
	baseline  int
}

// New computes the column baseline immediately; the baseline never changes
// for the lifetime of the engine.
func New(g *grid.Grid, party int) *Engine {
	return &Engine{
		grid:     g,
		party:    party,
		nextID:   1,
		baseline: BaselineWins(g, party),
	}
}

func (e *Engine) Party() int { return e.party }

func (e *Engine) Selection() []int {
	return slices.Clone(e.selection)
}

func (e *Engine) Districts() []District {
	out := make([]District, len(e.districts))
	for i, d := range e.districts {
		out[i] = District{ID: d.ID, Winner: d.Winner, Cells: slices.Clone(d.Cells)}
	}
	return out
}

// BeginSelection starts a fresh one-cell buffer. Starting on an assigned
// cell is a caller contract violation (the surface should not offer it).
func (e *Engine) BeginSelection(index int) error {
	if e.grid == nil {
		return ErrNoGrid
	}
	d, err := e.grid.DistrictContaining(index)
	if err != nil {
		return err
	}
	if d != grid.NoDistrict {
		return ErrAlreadyAssigned
	}
	e.selection = []int{index}
	return nil
}

// ExtendSelection appends a cell to the buffer if it keeps the selection
// valid; otherwise the call is silently ignored. Only an out-of-range index
// is an error, since that means the input adapter and the model have
// diverged. Returns whether the cell was added.
func (e *Engine) ExtendSelection(index int) (bool, error) {
	if e.grid == nil {
		return false, ErrNoGrid
	}
	d, err := e.grid.DistrictContaining(index)
	if err != nil {
		return false, err
	}
	if len(e.selection) == 0 {
		return false, nil
	}
	if d != grid.NoDistrict {
		return false, nil
	}
	if slices.Contains(e.selection, index) {
		return false, nil
	}
	if len(e.selection) >= DistrictSize {
		return false, nil
	}
	touches := false
	for _, s := range e.selection {
		if grid.Adjacent(s, index) {
			touches = true
			break
		}
	}
	if !touches {
		return false, nil
	}
	e.selection = append(e.selection, index)
	return true, nil
}

// EndSelection commits the buffer as a district if it is exactly full,
// otherwise discards it. The buffer is cleared either way.
func (e *Engine) EndSelection() (District, bool) {
	sel := e.selection
	e.selection = nil
	if e.grid == nil || len(sel) != DistrictSize {
		return District{}, false
	}

	mine := 0
	for _, i := range sel {
		side, _ := e.grid.Side(i)
		if side == e.party {
			mine++
		}
	}
	winner := 1 - e.party
	if mine >= WinThreshold {
		winner = e.party
	}

	d := District{ID: e.nextID, Winner: winner, Cells: sel}
	e.nextID++
	for _, i := range sel {
		_ = e.grid.Assign(i, d.ID)
	}
	e.districts = append(e.districts, d)
	return d, true
}

// DissolveDistrict removes a committed district and frees its cells.
func (e *Engine) DissolveDistrict(id int) error {
	if e.grid == nil {
		return ErrNoGrid
	}
	idx := slices.IndexFunc(e.districts, func(d District) bool { return d.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	e.districts = slices.Delete(e.districts, idx, idx+1)
	e.grid.ClearDistrict(id)
	return nil
}

// Complete reports whether every district slot is filled, which unlocks
// round submission.
func (e *Engine) Complete() bool {
	return len(e.districts) == DistrictSlots
}
