package grid

import "errors"

var ErrOutOfRange = errors.New("cell index out of range")
var ErrBadMap = errors.New("map payload has wrong shape")

const (
	Rows      = 5
	Cols      = 6
	CellCount = Rows * Cols
)

// NoDistrict marks a cell that belongs to no district. District ids handed
// out by the engine start at 1.
const NoDistrict = 0

type Cell struct {
	Index    int
	Side     int
	District int
}

// Grid is the fixed 5x6 arrangement of cells for one round. Side values are
// set once at initialization and never change; only district membership
// mutates afterwards.
type Grid struct {
	cells [CellCount]Cell
}

// New builds a grid from a server map payload: one side value (0 or 1) per
// cell, row-major.
func New(sides []int) (*Grid, error) {
	if len(sides) != CellCount {
		return nil, ErrBadMap
	}
	g := &Grid{}
	for i, s := range sides {
		if s != 0 && s != 1 {
			return nil, ErrBadMap
		}
		g.cells[i] = Cell{Index: i, Side: s, District: NoDistrict}
	}
	return g, nil
}

func Coordinates(index int) (x, y int, err error) {
	if index < 0 || index >= CellCount {
		return 0, 0, ErrOutOfRange
	}
	return index % Cols, index / Cols, nil
}

// Adjacent reports whether two cells share an edge. Diagonal neighbors do
// not count. Out-of-range indices are never adjacent to anything.
func Adjacent(i, j int) bool {
	xi, yi, err := Coordinates(i)
	if err != nil {
		return false
	}
	xj, yj, err := Coordinates(j)
	if err != nil {
		return false
	}
	dx, dy := xi-xj, yi-yj
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx+dy == 1
}

func (g *Grid) Cell(index int) (Cell, error) {
	if index < 0 || index >= CellCount {
		return Cell{}, ErrOutOfRange
	}
	return g.cells[index], nil
}

func (g *Grid) Side(index int) (int, error) {
	c, err := g.Cell(index)
	return c.Side, err
}

// DistrictContaining returns the district id of a cell, NoDistrict if
// unassigned.
func (g *Grid) DistrictContaining(index int) (int, error) {
	c, err := g.Cell(index)
	return c.District, err
}

// CellsOf returns the indices assigned to the given district, in index order.
func (g *Grid) CellsOf(district int) []int {
	var out []int
	for i := range g.cells {
		if g.cells[i].District == district && district != NoDistrict {
			out = append(out, i)
		}
	}
	return out
}

func (g *Grid) Assign(index, district int) error {
	if index < 0 || index >= CellCount {
		return ErrOutOfRange
	}
	g.cells[index].District = district
	return nil
}

// ClearDistrict returns every cell of the district to unassigned.
func (g *Grid) ClearDistrict(district int) {
	for i := range g.cells {
		if g.cells[i].District == district {
			g.cells[i].District = NoDistrict
		}
	}
}

// Cells returns a copy of the full cell array, for rendering.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, CellCount)
	copy(out, g.cells[:])
	return out
}
