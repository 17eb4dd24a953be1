package trace

import (
	"math/rand"
	"path/filepath"
	"testing"

	"cranesort/internal/yard"
)

func TestSaveLoad(t *testing.T) {
	in := yard.Reversed(5)
	plan := yard.Plan{Label: "solo", Sweep: make([]int, 5), Retire: []bool{false, true, true, true, true}}
	res, err := yard.Run(&yard.Env{Rng: rand.New(rand.NewSource(2))}, in, plan, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	path := filepath.Join(t.TempDir(), "traces", "best.jsonl.zst")
	if err := Save(path, res); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != res.Turns {
		t.Fatalf("entries=%d want=%d", len(got), res.Turns)
	}
	if got[0].Board[0][0] != 4 || got[0].Board[0][1] != -1 {
		t.Fatalf("turn 0 board row 0=%v", got[0].Board[0])
	}
	if got[0].Actions != "PBBBB" {
		t.Fatalf("turn 0 actions=%q want=%q", got[0].Actions, "PBBBB")
	}
	events := 0
	for _, e := range got {
		events += len(e.Events)
		for i := range e.Actions {
			if e.Actions[i] != res.Actions[i][e.Turn] {
				t.Fatalf("turn %d crane %d action mismatch", e.Turn, i)
			}
		}
	}
	if events != len(res.Events) {
		t.Fatalf("events=%d want=%d", events, len(res.Events))
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.zst")); err == nil {
		t.Fatalf("load of a missing file succeeded")
	}
}
