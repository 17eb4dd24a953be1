package yard

// CouldMove reports whether c may perform act this turn. now holds every crane as
// updated so far in the turn, prev the slots at turn start. Non-move actions are
// always legal here.
func CouldMove(c *Crane, act Action, g *Grid, now []*Crane, prev Snapshot) bool {
	if !act.IsMove() {
		return true
	}
	return CouldMoveFrom(c.ID, c.Kind, c.Loaded(), c.Pos, act, g, now, prev)
}

// CouldMoveFrom evaluates the move predicate for crane id as if it stood on from.
func CouldMoveFrom(id int, kind Kind, loaded bool, from Pos, act Action, g *Grid, now []*Crane, prev Snapshot) bool {
	to := from.Add(act.Delta())
	if !g.InBounds(to) {
		return false
	}
	for j, o := range now {
		if j == id {
			continue
		}
		// a crane removed this turn still holds its cell until the turn ends
		if o.Pos == to && (o.Active() || prev[j].Active) {
			return false
		}
		if prev[j].Active && prev[j].Pos == to && o.Pos == from {
			return false
		}
	}
	if kind == Small && loaded && !g.At(to).IsEmpty() {
		return false
	}
	return true
}

func (s *sim) legalMoves(c *Crane) []Action {
	var out []Action
	for _, a := range moveOrder {
		if CouldMove(c, a, s.grid, s.cranes, s.prev) {
			out = append(out, a)
		}
	}
	return out
}

// pickRandom returns a uniformly chosen legal move.
func (s *sim) pickRandom(c *Crane) (Action, bool) {
	ms := s.legalMoves(c)
	if len(ms) == 0 {
		return Wait, false
	}
	return ms[s.rng.Intn(len(ms))], true
}

// roundTrips lists the legal moves c can undo next turn. A crane next to c's cell
// could take it before c returns, so none qualify while one is there.
func (s *sim) roundTrips(c *Crane) []Action {
	for j, o := range s.cranes {
		if j != c.ID && (o.Active() || s.prev[j].Active) && manhattan(o.Pos, c.Pos) <= 1 {
			return nil
		}
	}
	var out []Action
	for _, a := range s.legalMoves(c) {
		if CouldMoveFrom(c.ID, c.Kind, c.Loaded(), c.Pos.Add(a.Delta()), a.Reverse(), s.grid, s.cranes, s.prev) {
			out = append(out, a)
		}
	}
	return out
}

// pickRoundTrip prefers a move from roundTrips, falling back to any legal move.
func (s *sim) pickRoundTrip(c *Crane) (Action, bool) {
	if ms := s.roundTrips(c); len(ms) > 0 {
		return ms[s.rng.Intn(len(ms))], true
	}
	return s.pickRandom(c)
}

func (s *sim) apply(c *Crane, a Action) {
	c.Pos = c.Pos.Add(a.Delta())
}

// stepRandom moves c one legal step, or waits when boxed in.
func (s *sim) stepRandom(c *Crane) Action {
	a, ok := s.pickRandom(c)
	if !ok {
		s.stats.Waits++
		return Wait
	}
	s.apply(c, a)
	s.stats.RandomSteps++
	s.emit(Event{Turn: s.turn, Type: "RandomStep", Payload: map[string]any{"crane": c.ID, "dir": a.String()}})
	return a
}
