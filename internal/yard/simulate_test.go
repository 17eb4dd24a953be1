package yard

import (
	"errors"
	"math/rand"
	"testing"
)

func soloPlan(n int) Plan {
	p := Plan{Label: "solo", Sweep: make([]int, n), Retire: make([]bool, n)}
	for i := 1; i < n; i++ {
		p.Retire[i] = true
	}
	return p
}

// checkRoundTrip replays a driver result and compares every board it recorded.
func checkRoundTrip(t *testing.T, in Input, res Result) Verdict {
	t.Helper()
	v, err := Replay(in, res.Actions)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if v.Turns != res.Turns {
		t.Fatalf("replay turns=%d driver turns=%d", v.Turns, res.Turns)
	}
	if !v.Final.Equal(res.Final) {
		t.Fatalf("final boards differ:\nreplay\n%s\ndriver\n%s", v.Final, res.Final)
	}
	if v.History.Len() != res.History.Len() {
		t.Fatalf("history len replay=%d driver=%d", v.History.Len(), res.History.Len())
	}
	for turn := 0; turn < v.History.Len(); turn++ {
		if !v.History.At(turn).Equal(res.History.At(turn)) {
			t.Fatalf("turn %d boards differ", turn)
		}
	}
	return v
}

func TestFallback_SortedBoard(t *testing.T) {
	v, err := Replay(Sorted(5), Fallback(5))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !v.Sorted() {
		t.Fatalf("fallback left sorted board unsorted: %+v", v)
	}
	if v.Score != 46 {
		t.Fatalf("score=%d want=46", v.Score)
	}
}

func TestFallback_ReversedBoardLegalButUnsorted(t *testing.T) {
	v, err := Replay(Reversed(5), Fallback(5))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if v.Remaining != 0 || v.WrongLane != 0 {
		t.Fatalf("remaining=%d wrong=%d want 0/0", v.Remaining, v.WrongLane)
	}
	if v.Inversions != 50 {
		t.Fatalf("inversions=%d want=50", v.Inversions)
	}
}

func TestRun_LargeCraneAloneSolvesReversed(t *testing.T) {
	in := Reversed(5)
	env := &Env{Rng: rand.New(rand.NewSource(7)), TurnMax: DefaultTurnMax}
	res, err := Run(env, in, soloPlan(5), true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Solved {
		t.Fatalf("not solved")
	}
	if res.Stats.SelfDestructs != 4 {
		t.Fatalf("self destructs=%d want=4", res.Stats.SelfDestructs)
	}
	if res.Stats.ForcedDrops+res.Stats.SelfDestructs == 0 {
		t.Fatalf("no recovery event on the reversed board")
	}
	if res.Stats.Deliveries != 25 {
		t.Fatalf("deliveries=%d want=25", res.Stats.Deliveries)
	}
	v := checkRoundTrip(t, in, res)
	if !v.Sorted() {
		t.Fatalf("verdict %+v", v)
	}
	if v.Score != int64(res.Turns) {
		t.Fatalf("score=%d turns=%d", v.Score, res.Turns)
	}
	delivers := 0
	for _, ev := range res.Events {
		if ev.Type == "Deliver" {
			delivers++
		}
	}
	if delivers != 25 {
		t.Fatalf("deliver events=%d want=25", delivers)
	}
}

func TestRun_RandomPlansStayLegal(t *testing.T) {
	boards := []Input{Sorted(5), Reversed(5), shuffled(5, 11), shuffled(5, 12)}
	for bi, in := range boards {
		for seed := int64(1); seed <= 12; seed++ {
			rng := rand.New(rand.NewSource(seed))
			sw := DefaultSweeps[int(seed)%len(DefaultSweeps)]
			plan := Plan{Label: sw.Name, Sweep: sw.Depths, Retire: make([]bool, 5)}
			for i := 1; i < 5; i++ {
				plan.Retire[i] = rng.Intn(2) == 0
			}
			completed := map[int]bool{}
			watch := func(id int, from, to Status, owner int) {
				if completed[id] {
					t.Fatalf("board %d seed %d: container %d left Completed for %s", bi, seed, id, to)
				}
				if to == Completed {
					completed[id] = true
				}
			}
			res, err := Run(&Env{Rng: rng, Watch: watch}, in, plan, false)
			if err != nil {
				if !errors.Is(err, ErrTurnBudget) {
					t.Fatalf("board %d seed %d: unexpected error %v", bi, seed, err)
				}
				continue
			}
			if len(completed) != 25 {
				t.Fatalf("board %d seed %d: completed=%d want=25", bi, seed, len(completed))
			}
			v := checkRoundTrip(t, in, res)
			if !v.Sorted() {
				t.Fatalf("board %d seed %d: solved run scored %+v", bi, seed, v)
			}
			if res.TotalActions != TotalActions(res.Actions) || res.TotalActions != 5*res.Turns {
				t.Fatalf("board %d seed %d: total actions %d", bi, seed, res.TotalActions)
			}
		}
	}
}

func TestRun_SameSeedSameSchedule(t *testing.T) {
	in := shuffled(5, 5)
	plan := Plan{Label: "two", Sweep: []int{2, 2, 2, 2, 2}, Retire: []bool{false, false, true, false, true}}
	a, errA := Run(&Env{Rng: rand.New(rand.NewSource(9))}, in, plan, false)
	b, errB := Run(&Env{Rng: rand.New(rand.NewSource(9))}, in, plan, false)
	if (errA == nil) != (errB == nil) {
		t.Fatalf("errors differ: %v vs %v", errA, errB)
	}
	if len(a.Actions) != len(b.Actions) {
		t.Fatalf("action counts differ")
	}
	for i := range a.Actions {
		if a.Actions[i] != b.Actions[i] {
			t.Fatalf("crane %d schedules differ", i)
		}
	}
}

func TestRun_TurnBudget(t *testing.T) {
	_, err := Run(&Env{Rng: rand.New(rand.NewSource(1)), TurnMax: 5}, Reversed(5), soloPlan(5), false)
	if !errors.Is(err, ErrTurnBudget) {
		t.Fatalf("err=%v want ErrTurnBudget", err)
	}
}

func TestContradictionError_Is(t *testing.T) {
	var err error = &ContradictionError{Turn: 3, Crane: 1, Kind: "lift", Detail: "x"}
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("ContradictionError does not match ErrContradiction")
	}
	if errors.Is(err, ErrTurnBudget) {
		t.Fatalf("ContradictionError matches ErrTurnBudget")
	}
}

func TestReplay_Violations(t *testing.T) {
	in := Sorted(5)
	cases := map[string][]string{
		"collision":   {"D", "", "", "", ""},
		"off yard":    {"U", "", "", "", ""},
		"lift empty":  {"RP", "", "", "", ""},
		"drop empty":  {"Q", "", "", "", ""},
		"bad action":  {"X", "", "", "", ""},
		"retired act": {"", "BR", "", "", ""},
		"small carry": {"", "PUQ", "", "", ""},
		"few strings": {""},
	}
	for name, acts := range cases {
		var v *Violation
		if _, err := Replay(in, acts); !errors.As(err, &v) {
			t.Fatalf("%s: err=%v want *Violation", name, err)
		}
	}
}

func shuffled(n int, seed int64) Input {
	rng := rand.New(rand.NewSource(seed))
	ids := rng.Perm(n * n)
	in := Input{N: n, Rows: make([][]int, n)}
	for r := range in.Rows {
		in.Rows[r] = ids[r*n : (r+1)*n]
	}
	return in
}
