package yard

// Kind is fixed when a crane is created.
type Kind int

const (
	Large Kind = iota // may carry over containers
	Small             // may not enter a container cell while loaded
)

func (k Kind) String() string {
	return [...]string{"large", "small"}[k]
}

type State int

const (
	Active State = iota
	Retired
)

func (s State) String() string {
	return [...]string{"active", "retired"}[s]
}

type Crane struct {
	ID    int
	Kind  Kind
	Pos   Pos
	Load  int // container id, -1 when empty
	State State

	plan Steps
}

func (c *Crane) Loaded() bool { return c.Load >= 0 }
func (c *Crane) Active() bool { return c.State == Active }

// NewFleet places crane i at (i,0). Crane 0 is the only large crane.
func NewFleet(n int) []*Crane {
	out := make([]*Crane, n)
	for i := range out {
		kind := Small
		if i == 0 {
			kind = Large
		}
		out[i] = &Crane{ID: i, Kind: kind, Pos: Pos{i, 0}, Load: -1}
	}
	return out
}

// Slot is one crane's position at the start of a turn.
type Slot struct {
	Pos    Pos
	Active bool
}

// Snapshot records every crane's slot at the start of a turn.
type Snapshot []Slot

func TakeSnapshot(cranes []*Crane) Snapshot {
	out := make(Snapshot, len(cranes))
	for i, c := range cranes {
		out[i] = Slot{Pos: c.Pos, Active: c.Active()}
	}
	return out
}
