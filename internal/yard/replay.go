package yard

import "fmt"

// Violation is the first rule a schedule breaks.
type Violation struct {
	Turn   int
	Crane  int
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("turn %d crane %d: %s", v.Turn, v.Crane, v.Reason)
}

// Verdict scores a legal schedule.
type Verdict struct {
	Turns      int     `json:"turns"`
	Delivered  [][]int `json:"delivered"`
	Inversions int     `json:"inversions"`
	WrongLane  int     `json:"wrong_lane"`
	Remaining  int     `json:"remaining"`
	Score      int64   `json:"score"`

	Final   *Grid    `json:"-"`
	History *History `json:"-"`
}

// Sorted reports whether every container reached its own lane in order.
func (v Verdict) Sorted() bool { return v.Inversions == 0 && v.WrongLane == 0 && v.Remaining == 0 }

type replayCrane struct {
	kind   Kind
	pos    Pos
	load   int
	active bool
}

// Replay runs actions against in from scratch under the full turn rules and
// scores the outcome.
func Replay(in Input, actions []string) (Verdict, error) {
	n := in.N
	if len(actions) != n {
		return Verdict{}, &Violation{Turn: 0, Crane: -1, Reason: fmt.Sprintf("%d action strings, want %d", len(actions), n)}
	}
	grid := NewGrid(n)
	hist := &History{}
	queues := make([][]int, n)
	for r, row := range in.Rows {
		queues[r] = append([]int(nil), row...)
	}
	cranes := make([]replayCrane, n)
	for i := range cranes {
		cranes[i] = replayCrane{kind: Small, pos: Pos{i, 0}, load: -1, active: true}
	}
	cranes[0].kind = Large
	delivered := make([][]int, n)

	turns := 0
	for _, a := range actions {
		if len(a) > turns {
			turns = len(a)
		}
	}

	for t := 0; t < turns; t++ {
		for r := 0; r < n; r++ {
			p := Pos{r, 0}
			if len(queues[r]) == 0 || !grid.At(p).IsEmpty() {
				continue
			}
			held := false
			for _, c := range cranes {
				if c.active && c.load >= 0 && c.pos == p {
					held = true
				}
			}
			if !held {
				grid.Set(p, ContainerCell(queues[r][0]))
				queues[r] = queues[r][1:]
			}
		}
		hist.Push(grid)

		before := make([]replayCrane, n)
		copy(before, cranes)
		for i := range cranes {
			c := &cranes[i]
			act := Wait
			if t < len(actions[i]) {
				var ok bool
				if act, ok = ParseAction(actions[i][t]); !ok {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: fmt.Sprintf("unknown action %q", actions[i][t])}
				}
			}
			if !c.active {
				if act != Wait {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "retired crane acts"}
				}
				continue
			}
			switch {
			case act == Lift:
				if c.load >= 0 || grid.At(c.pos).IsEmpty() {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "lift without container or while loaded"}
				}
				c.load = grid.At(c.pos).ID()
				grid.Set(c.pos, Empty)
			case act == Drop:
				if c.load < 0 || !grid.At(c.pos).IsEmpty() {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "drop without load or onto container"}
				}
				grid.Set(c.pos, ContainerCell(c.load))
				c.load = -1
			case act == Remove:
				if c.load >= 0 {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "remove while loaded"}
				}
				c.active = false
			case act.IsMove():
				to := c.pos.Add(act.Delta())
				if !grid.InBounds(to) {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "move off the yard"}
				}
				if c.kind == Small && c.load >= 0 && !grid.At(to).IsEmpty() {
					return Verdict{}, &Violation{Turn: t, Crane: i, Reason: "small crane carries onto a container"}
				}
				c.pos = to
			}
		}
		for i := range cranes {
			if !before[i].active {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !before[j].active {
					continue
				}
				if cranes[i].pos == cranes[j].pos {
					return Verdict{}, &Violation{Turn: t, Crane: j, Reason: fmt.Sprintf("collides with crane %d", i)}
				}
				if cranes[i].pos == before[j].pos && cranes[j].pos == before[i].pos && cranes[i].pos != before[i].pos {
					return Verdict{}, &Violation{Turn: t, Crane: j, Reason: fmt.Sprintf("swaps with crane %d", i)}
				}
			}
		}

		for r := 0; r < n; r++ {
			p := Pos{r, n - 1}
			if cell := grid.At(p); !cell.IsEmpty() {
				delivered[r] = append(delivered[r], cell.ID())
				grid.Set(p, Empty)
			}
		}
	}

	v := Verdict{Turns: turns, Delivered: delivered, Final: grid, History: hist}
	got := 0
	for r, lane := range delivered {
		got += len(lane)
		for a := range lane {
			if lane[a]/n != r {
				v.WrongLane++
			}
			for b := a + 1; b < len(lane); b++ {
				if lane[a] > lane[b] {
					v.Inversions++
				}
			}
		}
	}
	v.Remaining = n*n - got
	v.Score = int64(turns) + 100*int64(v.Inversions) + 10_000*int64(v.WrongLane) + 1_000_000*int64(v.Remaining)
	return v, nil
}

