package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cranesort/internal/config"
	"cranesort/internal/persistence/trace"
	"cranesort/internal/report"
	"cranesort/internal/search"
	"cranesort/internal/store/sqlite"
	"cranesort/internal/transport/observer"
	"cranesort/internal/util"
	"cranesort/internal/yard"
)

type flags struct {
	cfgDir, inPath, outPath, jsonPath, dbPath, tracePath, observeAddr, sweepName string

	seed                                 int64
	deadlineMS, workers, attempts, batch int
	single                               bool
}

func main() {
	var f flags
	flag.StringVar(&f.cfgDir, "config", "configs", "config dir (search.yaml|search.toml, sweeps.yaml)")
	flag.StringVar(&f.inPath, "in", "", "input file (default stdin)")
	flag.StringVar(&f.outPath, "out", "", "schedule file (default stdout); summary file with -batch")
	flag.StringVar(&f.jsonPath, "json", "", "write a schema-checked JSON report")
	flag.StringVar(&f.dbPath, "db", "", "record attempts into this sqlite db")
	flag.StringVar(&f.tracePath, "trace", "", "write a zstd JSONL trace of the kept schedule")
	flag.StringVar(&f.observeAddr, "observe", "", "serve search progress over websocket at addr (path /ws)")
	flag.StringVar(&f.sweepName, "sweep", "full", "opening used by -single")
	flag.Int64Var(&f.seed, "seed", 0, "base seed (0 = config)")
	flag.IntVar(&f.deadlineMS, "deadline", 0, "deadline in ms (0 = config)")
	flag.IntVar(&f.workers, "workers", 0, "search workers (0 = config)")
	flag.IntVar(&f.attempts, "attempts", -1, "attempt cap (-1 = config, 0 = until deadline)")
	flag.IntVar(&f.batch, "batch", 0, "solve this many random boards and write a summary")
	flag.BoolVar(&f.single, "single", false, "run one attempt without restarts")
	flag.Parse()

	if err := run(f); err != nil {
		log.Fatalf("[cranesvc] %v", err)
	}
}

func run(f flags) error {
	searchCfg, sweepsCfg, err := config.LoadAll(f.cfgDir)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if f.seed != 0 {
		searchCfg.Seed = f.seed
	}
	if f.deadlineMS > 0 {
		searchCfg.DeadlineMS = f.deadlineMS
	}
	if f.workers > 0 {
		searchCfg.Workers = f.workers
	}
	if f.attempts >= 0 {
		searchCfg.MaxAttempts = f.attempts
	}
	opt := options(*searchCfg, *sweepsCfg)

	if f.batch > 0 {
		return runBatch(opt, f.batch, f.outPath)
	}

	in, err := readInput(f.inPath)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if f.single {
		return runSingle(in, opt, f.sweepName, f.outPath, f.tracePath)
	}
	return runSearch(in, opt, f)
}

// runSearch runs the restart search and writes everything the flags ask for.
func runSearch(in yard.Input, opt search.Options, f flags) error {
	ctx := context.Background()
	runID := ""
	var store *sqlite.Store
	if f.dbPath != "" {
		var err error
		store, err = sqlite.Open(f.dbPath)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		runID, err = store.CreateRun(ctx, sqlite.Run{Input: in, Seed: opt.Seed})
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		opt.Recorder = store.Recorder(runID)
		log.Printf("[cranesvc] run %s", runID)
	}

	if f.observeAddr != "" {
		hub := observer.NewHub(log.Default())
		defer hub.Close()
		mux := http.NewServeMux()
		mux.Handle("/ws", hub.WSHandler())
		srv := &http.Server{Addr: f.observeAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[observer] %v", err)
			}
		}()
		defer srv.Close()
		opt.Observer = hub
		log.Printf("[observer] listening on %s/ws", f.observeAddr)
	}

	out, err := search.Run(ctx, in, opt)
	if err != nil {
		log.Printf("[cranesvc] search stopped: %v", err)
	}
	if out.Fallback {
		log.Printf("[cranesvc] no attempt solved the board in %d tries, using the shuttle fallback", out.Attempts)
	}
	log.Printf("[cranesvc] attempts=%d best=%d turns=%d total_actions=%d failures=%v",
		out.Attempts, out.BestAttempt, out.Best.Turns, out.Best.TotalActions, out.Failures)

	if store != nil {
		if err := store.FinishRun(ctx, runID, out); err != nil {
			log.Printf("[cranesvc] db: %v", err)
		}
	}
	if f.tracePath != "" {
		best := out.Best
		if !out.Fallback {
			if best, err = search.Rerun(in, out.BestSeed, out.Best.Plan, opt.TurnMax); err != nil {
				return fmt.Errorf("trace rerun: %w", err)
			}
		}
		if err := trace.Save(f.tracePath, best); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	if f.jsonPath != "" {
		r, err := report.Build(runID, in, out)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		b, err := report.Marshal(r)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		if err := os.WriteFile(f.jsonPath, b, 0o644); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	if err := writeSchedule(f.outPath, out.Best.Actions); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

func options(c config.SearchConfig, sc config.SweepsConfig) search.Options {
	opt := search.Options{
		Deadline:    c.Deadline(),
		MaxAttempts: c.MaxAttempts,
		Workers:     c.Workers,
		Seed:        c.Seed,
		TurnMax:     c.TurnMax,
		RetireProb:  c.RetireProb,
		Mixed:       c.Mixed,
	}
	for _, sw := range sc.Sweeps {
		opt.Sweeps = append(opt.Sweeps, yard.Sweep{Name: sw.Name, Depths: sw.Depths})
	}
	return opt
}

func readInput(path string) (yard.Input, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return yard.Input{}, err
		}
		defer f.Close()
		r = f
	}
	return yard.ParseInput(r)
}

func writeSchedule(path string, actions []string) error {
	if path == "" {
		return yard.FormatOutput(os.Stdout, actions)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := yard.FormatOutput(f, actions); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runSingle(in yard.Input, opt search.Options, sweepName, outPath, tracePath string) error {
	sweeps := opt.Sweeps
	if len(sweeps) == 0 {
		sweeps = yard.DefaultSweeps
	}
	plan := yard.Plan{Label: sweepName, Retire: make([]bool, in.N)}
	found := false
	for _, sw := range sweeps {
		if sw.Name == sweepName {
			plan.Sweep = sw.Depths
			found = true
		}
	}
	if !found {
		return fmt.Errorf("unknown sweep %q", sweepName)
	}
	seed := util.Derive(opt.Seed, 0)
	res, err := search.Rerun(in, seed, plan, opt.TurnMax)
	if err != nil {
		log.Printf("[cranesvc] single attempt failed: %v; using the shuttle fallback", err)
		res = search.Fallback(in)
	}
	log.Printf("[cranesvc] single solved=%v turns=%d total_actions=%d forced_drops=%d self_destructs=%d",
		res.Solved, res.Turns, res.TotalActions, res.Stats.ForcedDrops, res.Stats.SelfDestructs)
	if tracePath != "" {
		if err := trace.Save(tracePath, res); err != nil {
			return fmt.Errorf("trace: %w", err)
		}
	}
	if err := writeSchedule(outPath, res.Actions); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// runBatch solves n random boards on a worker pool, each with a single-worker search.
func runBatch(opt search.Options, n int, out string) error {
	if out == "" {
		out = "summary.json"
	}
	type stat struct {
		Solved    int
		Fallbacks int
		SumTurns  int
		SumScore  int64
		Failures  map[string]int
		Sweeps    map[string]int
	}
	st := stat{Failures: map[string]int{}, Sweeps: map[string]int{}}
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	workers := opt.Workers
	if workers <= 0 {
		workers = 1
	}
	jobs := make(chan int, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				in := randomBoard(util.New(util.Derive(opt.Seed, -1-i)), 5)
				o := opt
				o.Workers = 1
				o.Seed = util.Derive(opt.Seed, i)
				res, _ := search.Run(context.Background(), in, o)
				v, err := yard.Replay(in, res.Best.Actions)

				mu.Lock()
				if err == nil && v.Sorted() {
					st.Solved++
				}
				if res.Fallback {
					st.Fallbacks++
				} else {
					st.Sweeps[res.Best.Plan.Label]++
				}
				st.SumTurns += v.Turns
				st.SumScore += v.Score
				for k, c := range res.Failures {
					st.Failures[k] += c
				}
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	summary := map[string]any{
		"boards":       n,
		"solved_rate":  float64(st.Solved) / float64(n),
		"fallbacks":    st.Fallbacks,
		"avg_turns":    float64(st.SumTurns) / float64(n),
		"avg_score":    float64(st.SumScore) / float64(n),
		"failures":     st.Failures,
		"winning_plan": st.Sweeps,
	}
	if err := os.WriteFile(out, report.MarshalPretty(summary), 0o644); err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	fmt.Printf("Batch %d done -> %s\n", n, filepath.Base(out))
	return nil
}

func randomBoard(rng *rand.Rand, n int) yard.Input {
	ids := rng.Perm(n * n)
	in := yard.Input{N: n, Rows: make([][]int, n)}
	for r := range in.Rows {
		in.Rows[r] = ids[r*n : (r+1)*n]
	}
	return in
}
