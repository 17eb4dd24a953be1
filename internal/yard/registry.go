package yard

import "fmt"

type Status int

const (
	Free Status = iota
	Accepted
	InTransit
	Completed
)

func (s Status) String() string {
	return [...]string{"free", "accepted", "in_transit", "completed"}[s]
}

type claim struct {
	status Status
	owner  int
}

// Registry tracks container ownership and each lane's delivery cursor.
// Every transition is checked; an illegal one is a contradiction.
type Registry struct {
	n       int
	claims  []claim
	cursor  []int // -1 once the lane's group is complete
	pending int

	// OnChange, when set, observes every status transition.
	OnChange func(id int, from, to Status, owner int)
}

func NewRegistry(n int) *Registry {
	r := &Registry{
		n:       n,
		claims:  make([]claim, n*n),
		cursor:  make([]int, n),
		pending: n * n,
	}
	for i := range r.claims {
		r.claims[i] = claim{status: Free, owner: -1}
	}
	for lane := range r.cursor {
		r.cursor[lane] = lane * n
	}
	return r
}

func (r *Registry) RowGroup(id int) int { return id / r.n }

func (r *Registry) Status(id int) (Status, int) {
	c := r.claims[id]
	return c.status, c.owner
}

func (r *Registry) Owner(id int) int { return r.claims[id].owner }

// Due returns the id lane expects next.
func (r *Registry) Due(lane int) (int, bool) {
	c := r.cursor[lane]
	return c, c >= 0
}

func (r *Registry) IsDue(id int) bool { return r.cursor[r.RowGroup(id)] == id }

func (r *Registry) Done() bool { return r.pending == 0 }

func (r *Registry) set(id int, to Status, owner int) {
	from := r.claims[id].status
	r.claims[id] = claim{status: to, owner: owner}
	if r.OnChange != nil {
		r.OnChange(id, from, to, owner)
	}
}

func (r *Registry) Accept(id, agent int) error {
	if c := r.claims[id]; c.status != Free {
		return fmt.Errorf("accept %d by %d: %s by %d", id, agent, c.status, c.owner)
	}
	r.set(id, Accepted, agent)
	return nil
}

func (r *Registry) Lift(id, agent int) error {
	c := r.claims[id]
	switch {
	case c.status == Free:
	case c.status == Accepted && c.owner == agent:
	default:
		return fmt.Errorf("lift %d by %d: %s by %d", id, agent, c.status, c.owner)
	}
	r.set(id, InTransit, agent)
	return nil
}

// Release returns an accepted container to Free. Only the owner may release it.
func (r *Registry) Release(id, agent int) bool {
	if c := r.claims[id]; c.status != Accepted || c.owner != agent {
		return false
	}
	r.set(id, Free, -1)
	return true
}

func (r *Registry) ReleaseAll(agent int) []int {
	var out []int
	for id, c := range r.claims {
		if c.status == Accepted && c.owner == agent {
			r.set(id, Free, -1)
			out = append(out, id)
		}
	}
	return out
}

// Drop puts a carried container back on the yard, completed when it went to its lane.
func (r *Registry) Drop(id, agent int, completed bool) error {
	if c := r.claims[id]; c.status != InTransit || c.owner != agent {
		return fmt.Errorf("drop %d by %d: %s by %d", id, agent, c.status, c.owner)
	}
	if !completed {
		r.set(id, Free, -1)
		return nil
	}
	if !r.IsDue(id) {
		return fmt.Errorf("deliver %d out of order: lane %d expects %d", id, r.RowGroup(id), r.cursor[r.RowGroup(id)])
	}
	r.set(id, Completed, -1)
	r.pending--
	return nil
}

// Advance moves lane's cursor past id once id has left the yard.
func (r *Registry) Advance(lane, id int) error {
	if r.cursor[lane] != id {
		return fmt.Errorf("lane %d carried out %d, expected %d", lane, id, r.cursor[lane])
	}
	if id%r.n == r.n-1 {
		r.cursor[lane] = -1
	} else {
		r.cursor[lane] = id + 1
	}
	return nil
}
