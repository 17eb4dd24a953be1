package search

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"cranesort/internal/yard"
)

type progressLog struct {
	mu  sync.Mutex
	got []Progress
}

func (p *progressLog) Publish(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, v.(Progress))
}

type attemptLog struct {
	mu   sync.Mutex
	seen map[int]bool
	all  []Attempt
	fail error
}

func (a *attemptLog) RecordAttempt(_ context.Context, at Attempt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	if a.seen == nil {
		a.seen = map[int]bool{}
	}
	a.seen[at.Index] = true
	a.all = append(a.all, at)
	return nil
}

func shuffled(n int, seed int64) yard.Input {
	ids := rand.New(rand.NewSource(seed)).Perm(n * n)
	in := yard.Input{N: n, Rows: make([][]int, n)}
	for r := range in.Rows {
		in.Rows[r] = ids[r*n : (r+1)*n]
	}
	return in
}

func soloOptions(attempts int) Options {
	return Options{
		Deadline:    time.Minute,
		MaxAttempts: attempts,
		Workers:     1,
		Seed:        5,
		TurnMax:     1000,
		RetireProb:  1,
		Sweeps:      []yard.Sweep{{Name: "none", Depths: []int{0, 0, 0, 0, 0}}},
	}
}

func TestRun_SolvesReversedBoard(t *testing.T) {
	in := yard.Reversed(5)
	obs := &progressLog{}
	rec := &attemptLog{}
	opt := soloOptions(3)
	opt.Observer = obs
	opt.Recorder = rec
	out, err := Run(context.Background(), in, opt)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Fallback {
		t.Fatalf("fell back; failures=%v", out.Failures)
	}
	if out.Attempts != 3 || len(rec.seen) != 3 {
		t.Fatalf("attempts=%d recorded=%d want 3/3", out.Attempts, len(rec.seen))
	}
	v, err := yard.Replay(in, out.Best.Actions)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !v.Sorted() {
		t.Fatalf("best schedule unsorted: %+v", v)
	}
	if out.Best.Stats.ForcedDrops+out.Best.Stats.SelfDestructs == 0 {
		t.Fatalf("no recovery events in the best schedule")
	}
	if len(obs.got) != len(out.History) {
		t.Fatalf("observer saw %d improvements, history has %d", len(obs.got), len(out.History))
	}
}

func TestRun_HistoryNonIncreasing(t *testing.T) {
	for _, in := range []yard.Input{shuffled(5, 1), shuffled(5, 2), yard.Reversed(5)} {
		out, err := Run(context.Background(), in, Options{Deadline: time.Minute, MaxAttempts: 40, Workers: 2, Seed: 3, RetireProb: 0.5, Mixed: true})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		for i := 1; i < len(out.History); i++ {
			if out.History[i].Turns > out.History[i-1].Turns || out.History[i].TotalActions > out.History[i-1].TotalActions {
				t.Fatalf("history rose at %d: %+v", i, out.History)
			}
		}
		v, err := yard.Replay(in, out.Best.Actions)
		if err != nil {
			t.Fatalf("best schedule illegal: %v", err)
		}
		if !out.Fallback && !v.Sorted() {
			t.Fatalf("kept an unsorted schedule: %+v", v)
		}
		if out.Attempts != 40 {
			t.Fatalf("attempts=%d want=40", out.Attempts)
		}
	}
}

func TestRun_KeepsShortestMakespan(t *testing.T) {
	for bi, in := range []yard.Input{shuffled(5, 21), shuffled(5, 22), shuffled(5, 23)} {
		rec := &attemptLog{}
		out, err := Run(context.Background(), in, Options{Deadline: time.Minute, MaxAttempts: 30, Workers: 2, Seed: 7, RetireProb: 0.5, Mixed: true, Recorder: rec})
		if err != nil {
			t.Fatalf("board %d: run: %v", bi, err)
		}
		if out.Fallback {
			continue
		}
		best := -1
		for _, a := range rec.all {
			if a.Solved && (best < 0 || a.Turns < best) {
				best = a.Turns
			}
		}
		if out.Best.Turns != best {
			t.Fatalf("board %d: kept turns=%d want=%d", bi, out.Best.Turns, best)
		}
		if out.Best.TotalActions != 5*out.Best.Turns {
			t.Fatalf("board %d: total actions=%d turns=%d", bi, out.Best.TotalActions, out.Best.Turns)
		}
	}
}

func TestRun_FallbackWhenNothingSolves(t *testing.T) {
	in := yard.Sorted(5)
	out, err := Run(context.Background(), in, Options{MaxAttempts: 6, Workers: 2, TurnMax: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Fallback {
		t.Fatalf("expected fallback")
	}
	if out.Failures["turn_budget"] != 6 {
		t.Fatalf("failures=%v want 6 turn_budget", out.Failures)
	}
	if !out.Best.Solved || out.Best.Turns != 46 {
		t.Fatalf("fallback result %+v", out.Best)
	}
}

func TestRun_ReproducibleAcrossWorkers(t *testing.T) {
	in := shuffled(5, 8)
	a, _ := Run(context.Background(), in, Options{Deadline: time.Minute, MaxAttempts: 24, Workers: 1, Seed: 11, RetireProb: 0.5})
	b, _ := Run(context.Background(), in, Options{Deadline: time.Minute, MaxAttempts: 24, Workers: 3, Seed: 11, RetireProb: 0.5})
	if a.BestAttempt != b.BestAttempt || a.Fallback != b.Fallback {
		t.Fatalf("best attempt %d vs %d", a.BestAttempt, b.BestAttempt)
	}
	for i := range a.Best.Actions {
		if a.Best.Actions[i] != b.Best.Actions[i] {
			t.Fatalf("crane %d schedule differs across worker counts", i)
		}
	}
}

func TestRerun_MatchesAttempt(t *testing.T) {
	in := yard.Reversed(5)
	opt := soloOptions(1)
	out, err := Run(context.Background(), in, opt)
	if err != nil || out.Fallback {
		t.Fatalf("run: %v fallback=%v", err, out.Fallback)
	}
	res, err := Rerun(in, out.BestSeed, out.Best.Plan, opt.TurnMax)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	for i := range res.Actions {
		if res.Actions[i] != out.Best.Actions[i] {
			t.Fatalf("crane %d differs on rerun", i)
		}
	}
	if len(res.Events) == 0 {
		t.Fatalf("rerun recorded no events")
	}
}

func TestRun_RecorderFailureSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	out, err := Run(context.Background(), yard.Sorted(5), Options{MaxAttempts: 5, Recorder: &attemptLog{fail: boom}})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
	if len(out.Best.Actions) != 5 {
		t.Fatalf("outcome unusable after recorder failure")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Run(ctx, yard.Sorted(5), Options{MaxAttempts: 100})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if out.Attempts != 0 || !out.Fallback {
		t.Fatalf("attempts=%d fallback=%v", out.Attempts, out.Fallback)
	}
}

func TestChoosePlan_KeepsLargeCrane(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		p := ChoosePlan(rng, 5, Options{RetireProb: 1, Mixed: true})
		if p.Retire[0] {
			t.Fatalf("large crane designated for retirement")
		}
		for j := 1; j < 5; j++ {
			if !p.Retire[j] {
				t.Fatalf("retire_prob 1 left crane %d", j)
			}
		}
		if len(p.Sweep) != 5 {
			t.Fatalf("sweep %v", p.Sweep)
		}
	}
}
