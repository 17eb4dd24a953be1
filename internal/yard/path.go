package yard

import "sort"

// Direct walks all vertical steps first, then all horizontal ones.
func Direct(from, to Pos) []Action {
	out := make([]Action, 0, manhattan(from, to))
	for r := from.R; r < to.R; r++ {
		out = append(out, Down)
	}
	for r := from.R; r > to.R; r-- {
		out = append(out, Up)
	}
	for c := from.C; c < to.C; c++ {
		out = append(out, Right)
	}
	for c := from.C; c > to.C; c-- {
		out = append(out, Left)
	}
	return out
}

// LoadedRoute finds a shortest route for crane id carrying a container, expanding
// U, D, L, R in that order. The crane's own origin counts as vacated.
func LoadedRoute(id int, kind Kind, from, to Pos, g *Grid, now []*Crane, prev Snapshot) ([]Action, bool) {
	if from == to {
		return nil, true
	}
	type node struct {
		parent int
		act    Action
	}
	idx := func(p Pos) int { return p.R*g.N + p.C }
	seen := make([]bool, g.N*g.N)
	tree := make([]node, g.N*g.N)
	seen[idx(from)] = true
	queue := []Pos{from}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, a := range moveOrder {
			if !CouldMoveFrom(id, kind, true, p, a, g, now, prev) {
				continue
			}
			q := p.Add(a.Delta())
			if seen[idx(q)] {
				continue
			}
			seen[idx(q)] = true
			tree[idx(q)] = node{parent: idx(p), act: a}
			if q == to {
				var route []Action
				for at := idx(q); at != idx(from); at = tree[at].parent {
					route = append(route, tree[at].act)
				}
				for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
					route[i], route[j] = route[j], route[i]
				}
				return route, true
			}
			queue = append(queue, q)
		}
	}
	return nil, false
}

// RouteCost ranks temporary drop cells.
type RouteCost struct {
	Len      int
	Residual int
}

func (a RouteCost) less(b RouteCost) bool {
	if a.Len+a.Residual != b.Len+b.Residual {
		return a.Len+a.Residual < b.Len+b.Residual
	}
	return a.Residual < b.Residual
}

// Lane is the exit cell of id's row group.
func Lane(id, n int) Pos { return Pos{id / n, n - 1} }

type parking struct {
	Cell  Pos
	Route []Action
	Cost  RouteCost
}

// parkings lists the interior cells the carrier of id could reach from from on g, best first.
func (s *sim) parkings(c *Crane, from Pos, id int, g *Grid) []parking {
	lane := Lane(id, s.n)
	var out []parking
	for _, p := range g.EmptyInterior() {
		var route []Action
		if c.Kind == Large {
			route = Direct(from, p)
		} else {
			r, ok := LoadedRoute(c.ID, c.Kind, from, p, g, s.cranes, s.prev)
			if !ok {
				continue
			}
			route = r
		}
		out = append(out, parking{Cell: p, Route: route, Cost: RouteCost{Len: len(route), Residual: manhattan(p, lane)}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost.less(out[j].Cost) })
	return out
}

// withLifted returns g with the container at p removed, as the board a carrier
// leaving p would see.
func withLifted(g *Grid, p Pos) *Grid {
	cp := g.Clone()
	cp.Set(p, Empty)
	return cp
}
