package yard

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
)

var (
	ErrTurnBudget    = errors.New("yard: turn budget exhausted")
	ErrContradiction = errors.New("yard: planning contradiction")
)

// ContradictionError aborts one attempt: the board disagreed with what a crane planned.
type ContradictionError struct {
	Turn   int
	Crane  int
	Kind   string
	Detail string
}

func (e *ContradictionError) Error() string {
	return fmt.Sprintf("turn %d crane %d: %s: %s", e.Turn, e.Crane, e.Kind, e.Detail)
}

func (e *ContradictionError) Is(target error) bool { return target == ErrContradiction }

const DefaultTurnMax = 1000

type Env struct {
	Rng     *rand.Rand
	TurnMax int

	// Watch, when set, sees every container status transition of the attempt.
	Watch func(id int, from, to Status, owner int)
}

// Plan configures one attempt: the opening sweep depth per row and the small
// cranes that retire once the sweep is over.
type Plan struct {
	Label  string `json:"label"`
	Sweep  []int  `json:"sweep"`
	Retire []bool `json:"retire"`
}

type Stats struct {
	ForcedDrops   int `json:"forced_drops"`
	SelfDestructs int `json:"self_destructs"`
	RandomSteps   int `json:"random_steps"`
	Waits         int `json:"waits"`
	Deliveries    int `json:"deliveries"`
}

type Result struct {
	Solved       bool     `json:"solved"`
	Turns        int      `json:"turns"`
	TotalActions int      `json:"total_actions"`
	Actions      []string `json:"actions"`
	Plan         Plan     `json:"plan"`
	Stats        Stats    `json:"stats"`
	Events       []Event  `json:"events,omitempty"`

	Final   *Grid    `json:"-"`
	History *History `json:"-"`
}

// sim is the state of a single attempt.
type sim struct {
	n      int
	turn   int
	grid   *Grid
	hist   *History
	cranes []*Crane
	prev   Snapshot
	reg    *Registry
	queues [][]int
	rng    *rand.Rand
	stats  Stats
	emit   func(Event)
	acts   [][]Action
}

func newSim(env *Env, in Input, emit func(Event)) *sim {
	s := &sim{
		n:      in.N,
		grid:   NewGrid(in.N),
		hist:   &History{},
		cranes: NewFleet(in.N),
		reg:    NewRegistry(in.N),
		queues: make([][]int, in.N),
		rng:    env.Rng,
		emit:   emit,
		acts:   make([][]Action, in.N),
	}
	for r, row := range in.Rows {
		s.queues[r] = append([]int(nil), row...)
	}
	s.reg.OnChange = func(id int, from, to Status, owner int) {
		if env.Watch != nil {
			env.Watch(id, from, to, owner)
		}
		switch {
		case to == Accepted:
			s.emit(Event{Turn: s.turn, Type: "Claim", Payload: map[string]any{"container": id, "crane": owner}})
		case from == Accepted && to == Free:
			s.emit(Event{Turn: s.turn, Type: "Release", Payload: map[string]any{"container": id}})
		}
	}
	return s
}

// carryIn places the next queued container on every free entry cell.
func (s *sim) carryIn() {
	for r := 0; r < s.n; r++ {
		p := Pos{r, 0}
		if len(s.queues[r]) == 0 || !s.grid.At(p).IsEmpty() {
			continue
		}
		held := false
		for _, c := range s.cranes {
			if c.Active() && c.Loaded() && c.Pos == p {
				held = true
				break
			}
		}
		if held {
			continue
		}
		s.grid.Set(p, ContainerCell(s.queues[r][0]))
		s.queues[r] = s.queues[r][1:]
	}
}

func (s *sim) carryOut() error {
	for r := 0; r < s.n; r++ {
		p := Pos{r, s.n - 1}
		cell := s.grid.At(p)
		if cell.IsEmpty() {
			continue
		}
		if err := s.reg.Advance(r, cell.ID()); err != nil {
			return &ContradictionError{Turn: s.turn, Crane: -1, Kind: "carry-out", Detail: err.Error()}
		}
		s.grid.Set(p, Empty)
	}
	return nil
}

// turnStep runs one full turn; act decides and performs each active crane's action.
func (s *sim) turnStep(act func(c *Crane) (Action, error)) error {
	s.carryIn()
	s.hist.Push(s.grid)
	s.prev = TakeSnapshot(s.cranes)
	for _, c := range s.cranes {
		if !c.Active() {
			continue
		}
		a, err := act(c)
		if err != nil {
			return err
		}
		s.acts[c.ID] = append(s.acts[c.ID], a)
	}
	if err := s.carryOut(); err != nil {
		return err
	}
	s.turn++
	return nil
}

// Run executes one attempt: the opening sweep in lockstep, then the per-turn
// scheduler until every container is delivered.
func Run(env *Env, in Input, plan Plan, record bool) (Result, error) {
	var events []Event
	emit := func(ev Event) {
		if record {
			events = append(events, ev)
		}
	}
	turnMax := env.TurnMax
	if turnMax <= 0 {
		turnMax = DefaultTurnMax
	}

	s := newSim(env, in, emit)
	res := Result{Plan: plan}
	finish := func() Result {
		res.Turns = s.turn
		res.Actions = s.strings()
		res.TotalActions = TotalActions(res.Actions)
		res.Stats = s.stats
		res.Events = events
		res.Final = s.grid.Clone()
		res.History = s.hist
		return res
	}

	scripts := SweepScripts(plan.Sweep, s.n)
	for t := range scripts[0] {
		err := s.turnStep(func(c *Crane) (Action, error) {
			return s.execute(c, scripts[c.ID][t], true)
		})
		if err != nil {
			return finish(), fmt.Errorf("sweep: %w", err)
		}
		if s.turn >= turnMax {
			return finish(), ErrTurnBudget
		}
	}

	for i, retire := range plan.Retire {
		if retire && i > 0 && i < s.n {
			s.cranes[i].plan.Set([]Step{{Act: Remove, Want: -1}})
		}
	}

	for !s.reg.Done() {
		if s.turn >= turnMax {
			return finish(), ErrTurnBudget
		}
		if err := s.turnStep(s.act); err != nil {
			return finish(), err
		}
	}
	res.Solved = true
	return finish(), nil
}

func (s *sim) strings() []string {
	width := 0
	for _, a := range s.acts {
		if len(a) > width {
			width = len(a)
		}
	}
	out := make([]string, len(s.acts))
	for i, a := range s.acts {
		var sb strings.Builder
		for _, x := range a {
			sb.WriteByte(byte(x))
		}
		for j := len(a); j < width; j++ {
			sb.WriteByte(byte(Wait))
		}
		out[i] = sb.String()
	}
	return out
}

// TotalActions counts every action of the padded schedule, waits included, so a
// schedule of N cranes over T turns totals N*T.
func TotalActions(actions []string) int {
	width := 0
	for _, a := range actions {
		if len(a) > width {
			width = len(a)
		}
	}
	return width * len(actions)
}
