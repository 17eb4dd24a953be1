package yard

import (
	"fmt"
	"strings"
)

// Cell holds a container id, or Empty.
type Cell int

const Empty Cell = -1

func ContainerCell(id int) Cell { return Cell(id) }

func (c Cell) IsEmpty() bool { return c < 0 }
func (c Cell) ID() int       { return int(c) }

// Grid is an N×N yard, row-major. Column 0 is the entry column, column N-1 the exit lanes.
type Grid struct {
	N     int
	cells []Cell
}

func NewGrid(n int) *Grid {
	g := &Grid{N: n, cells: make([]Cell, n*n)}
	for i := range g.cells {
		g.cells[i] = Empty
	}
	return g
}

func (g *Grid) InBounds(p Pos) bool { return p.R >= 0 && p.R < g.N && p.C >= 0 && p.C < g.N }

func (g *Grid) At(p Pos) Cell     { return g.cells[p.R*g.N+p.C] }
func (g *Grid) Set(p Pos, c Cell) { g.cells[p.R*g.N+p.C] = c }

func (g *Grid) Clone() *Grid {
	cp := &Grid{N: g.N, cells: make([]Cell, len(g.cells))}
	copy(cp.cells, g.cells)
	return cp
}

func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.N != o.N {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

func (g *Grid) Find(id int) (Pos, bool) {
	for i, c := range g.cells {
		if c == Cell(id) {
			return Pos{i / g.N, i % g.N}, true
		}
	}
	return Pos{}, false
}

func (g *Grid) IsInterior(p Pos) bool { return p.C > 0 && p.C < g.N-1 }
func (g *Grid) IsExit(p Pos) bool     { return p.C == g.N-1 }

// EmptyInterior lists container-free cells outside the entry and exit columns, row-major.
func (g *Grid) EmptyInterior() []Pos {
	var out []Pos
	for r := 0; r < g.N; r++ {
		for c := 1; c < g.N-1; c++ {
			p := Pos{r, c}
			if g.At(p).IsEmpty() {
				out = append(out, p)
			}
		}
	}
	return out
}

func (g *Grid) Count() int {
	n := 0
	for _, c := range g.cells {
		if !c.IsEmpty() {
			n++
		}
	}
	return n
}

func (g *Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.N; r++ {
		for c := 0; c < g.N; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			cell := g.At(Pos{r, c})
			if cell.IsEmpty() {
				sb.WriteString(" .")
			} else {
				fmt.Fprintf(&sb, "%2d", cell.ID())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// History keeps one grid per turn: the board right after that turn's carry-in.
type History struct {
	grids []*Grid
}

func (h *History) Push(g *Grid)      { h.grids = append(h.grids, g.Clone()) }
func (h *History) Len() int          { return len(h.grids) }
func (h *History) At(turn int) *Grid { return h.grids[turn] }
