package yard

import (
	"fmt"
	"sort"
)

// act takes crane c's next planned step, planning first when it has none.
func (s *sim) act(c *Crane) (Action, error) {
	if c.plan.Empty() {
		var err error
		if c.Loaded() {
			s.decideLoaded(c)
		} else {
			err = s.decideEmpty(c)
		}
		if err != nil {
			return 0, err
		}
	}
	if c.plan.Empty() {
		s.stats.Waits++
		return Wait, nil
	}
	return s.execute(c, c.plan.Pop(), false)
}

type target struct {
	id    int
	at    Pos
	route []Action
	rank  int
	order int
}

// decideEmpty picks the next container for an idle, empty crane. Claims left over
// from an abandoned plan are released before anything new is claimed.
func (s *sim) decideEmpty(c *Crane) error {
	s.reg.ReleaseAll(c.ID)

	// due containers, nearest first
	var due []target
	for lane := 0; lane < s.n; lane++ {
		id, ok := s.reg.Due(lane)
		if !ok {
			continue
		}
		p, ok := s.grid.Find(id)
		if !ok {
			continue
		}
		// delivered this turn, leaves at carry-out
		if st, _ := s.reg.Status(id); st == Completed {
			continue
		}
		due = append(due, target{id: id, at: p, route: Direct(c.Pos, p), order: lane})
	}
	sort.SliceStable(due, func(i, j int) bool { return len(due[i].route) < len(due[j].route) })
	if len(due) > 0 {
		st, owner := s.reg.Status(due[0].id)
		if st != Free && owner != c.ID {
			if c.Kind == Large {
				c.plan.Set([]Step{{Act: Wait, Want: -1}})
				return nil
			}
			c.plan.Set([]Step{{Act: Remove, Want: -1}})
			return nil
		}
	}
	for _, t := range due {
		if st, _ := s.reg.Status(t.id); st != Free {
			continue
		}
		if c.Kind == Small {
			if _, ok := LoadedRoute(c.ID, c.Kind, t.at, Lane(t.id, s.n), withLifted(s.grid, t.at), s.cranes, s.prev); !ok {
				continue
			}
		}
		return s.claim(c, t)
	}

	// pull from the entry column
	empties := len(s.grid.EmptyInterior())
	var pulls []target
	for r := 0; r < s.n; r++ {
		p := Pos{r, 0}
		cell := s.grid.At(p)
		if cell.IsEmpty() {
			continue
		}
		id := cell.ID()
		if st, _ := s.reg.Status(id); st != Free || s.reg.IsDue(id) {
			continue
		}
		need := s.pullsNeeded(r)
		if need > s.n {
			if empties < s.n {
				continue
			}
		} else if need > empties {
			continue
		}
		if len(s.parkings(c, p, id, withLifted(s.grid, p))) == 0 {
			continue
		}
		pulls = append(pulls, target{id: id, at: p, route: Direct(c.Pos, p), rank: need, order: r})
	}
	sort.SliceStable(pulls, func(i, j int) bool {
		a, b := pulls[i], pulls[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return len(a.route) < len(b.route)
	})
	if len(pulls) > 0 {
		return s.claim(c, pulls[0])
	}

	// prefetch what each lane needs next
	var next []target
	for lane := 0; lane < s.n; lane++ {
		cur, ok := s.reg.Due(lane)
		if !ok || cur%s.n == s.n-1 {
			continue
		}
		id := cur + 1
		p, ok := s.grid.Find(id)
		if !ok {
			continue
		}
		if st, _ := s.reg.Status(id); st != Free {
			continue
		}
		// only when the cell it would be parked on is strictly closer to its lane
		parks := s.parkings(c, p, id, withLifted(s.grid, p))
		if len(parks) == 0 || parks[0].Cost.Residual >= manhattan(p, Lane(id, s.n)) {
			continue
		}
		next = append(next, target{id: id, at: p, route: Direct(c.Pos, p), order: lane})
	}
	sort.SliceStable(next, func(i, j int) bool { return len(next[i].route) < len(next[j].route) })
	if len(next) > 0 {
		return s.claim(c, next[0])
	}

	c.plan.Clear()
	if a, ok := s.pickRandom(c); ok {
		s.stats.RandomSteps++
		s.emit(Event{Turn: s.turn, Type: "RandomStep", Payload: map[string]any{"crane": c.ID, "dir": a.String()}})
		c.plan.Set([]Step{{Act: a, Want: -1}})
	}
	return nil
}

// pullsNeeded counts how many containers must leave entry row r before a due one
// reaches the entry cell. It is n+1 when the row holds nothing due.
func (s *sim) pullsNeeded(r int) int {
	i := 0
	if cell := s.grid.At(Pos{r, 0}); !cell.IsEmpty() {
		if s.reg.IsDue(cell.ID()) {
			return 0
		}
		i++
	}
	for _, id := range s.queues[r] {
		if s.reg.IsDue(id) {
			return i
		}
		i++
	}
	return s.n + 1
}

func (s *sim) claim(c *Crane, t target) error {
	if err := s.reg.Accept(t.id, c.ID); err != nil {
		return &ContradictionError{Turn: s.turn, Crane: c.ID, Kind: "claim", Detail: err.Error()}
	}
	c.plan.Set(append(moves(t.route), Step{Act: Lift, Want: t.id}))
	return nil
}

// decideLoaded routes a carried container to its lane when due, else to the best
// temporary cell.
func (s *sim) decideLoaded(c *Crane) {
	id := c.Load
	if s.reg.IsDue(id) {
		lane := Lane(id, s.n)
		route, ok := Direct(c.Pos, lane), true
		if c.Kind == Small {
			route, ok = LoadedRoute(c.ID, c.Kind, c.Pos, lane, s.grid, s.cranes, s.prev)
		}
		if ok {
			c.plan.Set(append(moves(route), Step{Act: Drop, Want: id}))
			return
		}
	}
	parks := s.parkings(c, c.Pos, id, s.grid)
	if len(parks) == 0 {
		if s.grid.IsInterior(c.Pos) {
			c.plan.Set([]Step{{Act: Drop, Want: id}})
			return
		}
		if a, ok := s.pickRandom(c); ok {
			s.stats.RandomSteps++
			c.plan.Set([]Step{{Act: a, Want: -1}})
		}
		return
	}
	best := parks[0]
	steps := moves(best.Route)
	if len(steps) == 0 {
		if d, ok := s.pickRoundTrip(c); ok {
			steps = []Step{{Act: d, Want: -1}, {Act: d.Reverse(), Want: -1}}
		}
	}
	c.plan.Set(append(steps, Step{Act: Drop, Want: id}))
}

func (s *sim) contradiction(c *Crane, kind, format string, args ...any) error {
	return &ContradictionError{Turn: s.turn, Crane: c.ID, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// execute performs st for c. With strict set every recovery path is a contradiction;
// scripted openings run that way.
func (s *sim) execute(c *Crane, st Step, strict bool) (Action, error) {
	switch st.Act {
	case Wait:
		return Wait, nil

	case Remove:
		if c.Loaded() {
			return 0, s.contradiction(c, "remove", "crane holds %d", c.Load)
		}
		c.State = Retired
		c.plan.Clear()
		s.reg.ReleaseAll(c.ID)
		s.stats.SelfDestructs++
		s.emit(Event{Turn: s.turn, Type: "SelfDestruct", Payload: map[string]any{"crane": c.ID}})
		return Remove, nil

	case Lift:
		cell := s.grid.At(c.Pos)
		switch {
		case c.Loaded():
			return 0, s.contradiction(c, "lift", "crane already holds %d", c.Load)
		case cell.IsEmpty():
			return 0, s.contradiction(c, "lift", "no container at %v", c.Pos)
		case st.Want >= 0 && cell.ID() != st.Want:
			return 0, s.contradiction(c, "lift", "want %d at %v, found %d", st.Want, c.Pos, cell.ID())
		}
		if err := s.reg.Lift(cell.ID(), c.ID); err != nil {
			return 0, s.contradiction(c, "lift", "%v", err)
		}
		c.Load = cell.ID()
		s.grid.Set(c.Pos, Empty)
		s.emit(Event{Turn: s.turn, Type: "Lift", Payload: map[string]any{"crane": c.ID, "container": c.Load, "r": c.Pos.R, "c": c.Pos.C}})
		return Lift, nil

	case Drop:
		if !c.Loaded() {
			return 0, s.contradiction(c, "drop", "crane holds nothing")
		}
		if !s.grid.At(c.Pos).IsEmpty() {
			if strict {
				return 0, s.contradiction(c, "drop", "cell %v occupied", c.Pos)
			}
			c.plan.Set([]Step{st})
			return s.stepRandom(c), nil
		}
		exit := s.grid.IsExit(c.Pos)
		if !strict && (c.Pos.C == 0 || (exit && (Lane(c.Load, s.n) != c.Pos || !s.reg.IsDue(c.Load)))) {
			c.plan.Clear()
			return s.stepRandom(c), nil
		}
		if err := s.reg.Drop(c.Load, c.ID, exit); err != nil {
			return 0, s.contradiction(c, "drop", "%v", err)
		}
		s.grid.Set(c.Pos, ContainerCell(c.Load))
		typ := "Drop"
		if exit {
			typ = "Deliver"
			s.stats.Deliveries++
		}
		s.emit(Event{Turn: s.turn, Type: typ, Payload: map[string]any{"crane": c.ID, "container": c.Load, "r": c.Pos.R, "c": c.Pos.C}})
		c.Load = -1
		return Drop, nil
	}

	if !st.Act.IsMove() {
		return 0, s.contradiction(c, "action", "unknown action %q", byte(st.Act))
	}
	if CouldMove(c, st.Act, s.grid, s.cranes, s.prev) {
		s.apply(c, st.Act)
		return st.Act, nil
	}
	if strict {
		return 0, s.contradiction(c, "move", "%s from %v blocked", st.Act, c.Pos)
	}
	switch {
	case c.Kind == Large:
		c.plan.Push(st)
		s.stats.Waits++
		s.emit(Event{Turn: s.turn, Type: "Wait", Payload: map[string]any{"crane": c.ID}})
		return Wait, nil
	case c.Loaded() && s.grid.IsExit(c.Pos):
		c.plan.Clear()
		return s.stepRandom(c), nil
	case c.Loaded():
		id := c.Load
		c.plan.Clear()
		if err := s.reg.Drop(id, c.ID, false); err != nil {
			return 0, s.contradiction(c, "forced-drop", "%v", err)
		}
		s.grid.Set(c.Pos, ContainerCell(id))
		c.Load = -1
		s.stats.ForcedDrops++
		s.emit(Event{Turn: s.turn, Type: "ForcedDrop", Payload: map[string]any{"crane": c.ID, "container": id, "r": c.Pos.R, "c": c.Pos.C}})
		return Drop, nil
	default:
		c.plan.Clear()
		s.reg.ReleaseAll(c.ID)
		return s.stepRandom(c), nil
	}
}
