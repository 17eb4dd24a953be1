package yard

type Event struct {
	Turn    int            `json:"turn"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Pos struct{ R, C int }

func (p Pos) Add(d Pos) Pos { return Pos{p.R + d.R, p.C + d.C} }

func manhattan(a, b Pos) int { return abs(a.R-b.R) + abs(a.C-b.C) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Action is one primitive crane operation, encoded by its output character.
type Action byte

const (
	Lift   Action = 'P'
	Drop   Action = 'Q'
	Up     Action = 'U'
	Down   Action = 'D'
	Left   Action = 'L'
	Right  Action = 'R'
	Wait   Action = '.'
	Remove Action = 'B'
)

// moveOrder is the fixed expansion order for BFS and the base order shuffled for random steps.
var moveOrder = [4]Action{Up, Down, Left, Right}

func ParseAction(c byte) (Action, bool) {
	switch a := Action(c); a {
	case Lift, Drop, Up, Down, Left, Right, Wait, Remove:
		return a, true
	}
	return 0, false
}

func (a Action) IsMove() bool {
	switch a {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

func (a Action) Delta() Pos {
	switch a {
	case Up:
		return Pos{-1, 0}
	case Down:
		return Pos{1, 0}
	case Left:
		return Pos{0, -1}
	case Right:
		return Pos{0, 1}
	}
	return Pos{}
}

func (a Action) Reverse() Action {
	switch a {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return a
}

func (a Action) String() string { return string(rune(a)) }

// Step is a planned action. Want names the container a Lift expects, -1 for any.
type Step struct {
	Act  Action
	Want int
}

// Steps is a crane's pending work, consumed from the back.
type Steps []Step

func (p *Steps) Empty() bool { return len(*p) == 0 }

func (p *Steps) Clear() { *p = (*p)[:0] }

func (p *Steps) Push(s Step) { *p = append(*p, s) }

func (p *Steps) Pop() Step {
	s := (*p)[len(*p)-1]
	*p = (*p)[:len(*p)-1]
	return s
}

// Set replaces the plan so that steps execute in the given order.
func (p *Steps) Set(steps []Step) {
	p.Clear()
	for i := len(steps) - 1; i >= 0; i-- {
		p.Push(steps[i])
	}
}

func moves(route []Action) []Step {
	out := make([]Step, 0, len(route)+1)
	for _, a := range route {
		out = append(out, Step{Act: a, Want: -1})
	}
	return out
}
