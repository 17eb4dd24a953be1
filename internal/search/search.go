package search

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cranesort/internal/util"
	"cranesort/internal/yard"
)

const defaultDeadline = 2800 * time.Millisecond

// Observer receives every improvement as it is found.
type Observer interface {
	Publish(v any)
}

// Recorder persists each finished attempt.
type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

type Options struct {
	Deadline    time.Duration // checked between attempts only
	MaxAttempts int           // 0 = until the deadline
	Workers     int
	Seed        int64
	TurnMax     int
	RetireProb  float64
	Sweeps      []yard.Sweep
	Mixed       bool

	Observer Observer
	Recorder Recorder
}

type Attempt struct {
	Index        int           `json:"index"`
	Seed         int64         `json:"seed"`
	Plan         yard.Plan     `json:"plan"`
	Solved       bool          `json:"solved"`
	Turns        int           `json:"turns"`
	TotalActions int           `json:"total_actions"`
	Failure      string        `json:"failure,omitempty"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Progress is one improvement of the kept best.
type Progress struct {
	Attempt      int           `json:"attempt"`
	Plan         string        `json:"plan"`
	Turns        int           `json:"turns"`
	TotalActions int           `json:"total_actions"`
	At           time.Duration `json:"at_ns"`
}

type Outcome struct {
	Best        yard.Result    `json:"best"`
	Fallback    bool           `json:"fallback"`
	Attempts    int            `json:"attempts"`
	Failures    map[string]int `json:"failures"`
	History     []Progress     `json:"history"`
	BestAttempt int            `json:"best_attempt"`
	BestSeed    int64          `json:"best_seed"`
}

// ChoosePlan draws an opening sweep and the small cranes that retire after it.
// Crane 0 always stays.
func ChoosePlan(rng *rand.Rand, n int, opt Options) yard.Plan {
	sweeps := opt.Sweeps
	if len(sweeps) == 0 {
		sweeps = yard.DefaultSweeps
	}
	k := len(sweeps)
	if opt.Mixed {
		k++
	}
	var sw yard.Sweep
	if i := rng.Intn(k); i < len(sweeps) {
		sw = sweeps[i]
	} else {
		sw = yard.MixedSweep(rng, n)
	}
	plan := yard.Plan{Label: sw.Name, Sweep: append([]int(nil), sw.Depths...), Retire: make([]bool, n)}
	for i := 1; i < n; i++ {
		plan.Retire[i] = rng.Float64() < opt.RetireProb
	}
	return plan
}

// simRng is the driver's stream for an attempt. The plan draws from the seed itself,
// so (seed, plan) is enough to rerun any attempt.
func simRng(seed int64) *rand.Rand { return util.New(util.Derive(seed, 0)) }

// Rerun repeats one attempt with events recorded.
func Rerun(in yard.Input, seed int64, plan yard.Plan, turnMax int) (yard.Result, error) {
	return yard.Run(&yard.Env{Rng: simRng(seed), TurnMax: turnMax}, in, plan, true)
}

// better orders solved results by makespan, then padded action total, then attempt index.
func better(a, b yard.Result, ai, bi int) bool {
	if a.Turns != b.Turns {
		return a.Turns < b.Turns
	}
	if a.TotalActions != b.TotalActions {
		return a.TotalActions < b.TotalActions
	}
	return ai < bi
}

func failureKind(err error) string {
	var ce *yard.ContradictionError
	switch {
	case errors.As(err, &ce):
		return "contradiction/" + ce.Kind
	case errors.Is(err, yard.ErrTurnBudget):
		return "turn_budget"
	}
	return "error"
}

// Run restarts the driver with random plans until the deadline or the attempt cap
// and keeps the schedule with the fewest turns. Without any solved attempt
// the fallback shuttle is returned. The error is non-nil only when ctx ends the
// search or the recorder fails; the outcome is usable either way.
func Run(ctx context.Context, in yard.Input, opt Options) (Outcome, error) {
	if opt.Deadline <= 0 && opt.MaxAttempts <= 0 {
		opt.Deadline = defaultDeadline
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = 1
	}
	start := time.Now()

	var (
		mu      sync.Mutex
		next    int
		out     = Outcome{Failures: map[string]int{}, BestAttempt: -1}
		haveAny bool
	)
	claim := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if opt.MaxAttempts > 0 && next >= opt.MaxAttempts {
			return 0, false
		}
		if opt.Deadline > 0 && time.Since(start) >= opt.Deadline {
			return 0, false
		}
		i := next
		next++
		return i, true
	}
	keep := func(a Attempt, res yard.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		out.Attempts++
		if err != nil {
			out.Failures[failureKind(err)]++
			return
		}
		if haveAny && !better(res, out.Best, a.Index, out.BestAttempt) {
			return
		}
		haveAny = true
		out.Best = res
		out.BestAttempt = a.Index
		out.BestSeed = a.Seed
		p := Progress{Attempt: a.Index, Plan: res.Plan.Label, Turns: res.Turns, TotalActions: res.TotalActions, At: time.Since(start)}
		out.History = append(out.History, p)
		if opt.Observer != nil {
			opt.Observer.Publish(p)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				idx, ok := claim()
				if !ok {
					return nil
				}
				seed := util.Derive(opt.Seed, idx)
				plan := ChoosePlan(util.New(seed), in.N, opt)
				t0 := time.Now()
				res, err := yard.Run(&yard.Env{Rng: simRng(seed), TurnMax: opt.TurnMax}, in, plan, false)
				a := Attempt{Index: idx, Seed: seed, Plan: plan, Solved: err == nil, Turns: res.Turns, TotalActions: res.TotalActions, Elapsed: time.Since(t0)}
				if err != nil {
					a.Failure = failureKind(err)
				}
				keep(a, res, err)
				if opt.Recorder != nil {
					if rerr := opt.Recorder.RecordAttempt(gctx, a); rerr != nil {
						return rerr
					}
				}
			}
		})
	}
	err := g.Wait()

	if !haveAny {
		out.Best = Fallback(in)
		out.Fallback = true
	}
	return out, err
}

// Fallback is the shuttle schedule scored against in.
func Fallback(in yard.Input) yard.Result {
	acts := yard.Fallback(in.N)
	res := yard.Result{
		Actions:      acts,
		Turns:        len(acts[0]),
		TotalActions: yard.TotalActions(acts),
		Plan:         yard.Plan{Label: "fallback"},
	}
	if v, err := yard.Replay(in, acts); err == nil {
		res.Solved = v.Sorted()
		res.Final = v.Final
		res.History = v.History
	}
	return res
}
