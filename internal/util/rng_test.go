package util

import "testing"

func TestNew_ZeroSeedPromoted(t *testing.T) {
	a, b := New(0), New(1)
	for i := 0; i < 5; i++ {
		if x, y := a.Int63(), b.Int63(); x != y {
			t.Fatalf("seed 0 and 1 diverge at %d: %d vs %d", i, x, y)
		}
	}
}

func TestDerive(t *testing.T) {
	seen := map[int64]int{}
	for i := 0; i < 1000; i++ {
		s := Derive(42, i)
		if s < 0 {
			t.Fatalf("Derive(42,%d)=%d negative", i, s)
		}
		if j, ok := seen[s]; ok {
			t.Fatalf("attempts %d and %d share seed %d", j, i, s)
		}
		seen[s] = i
	}
	if Derive(42, 3) != Derive(42, 3) {
		t.Fatalf("Derive not deterministic")
	}
	if Derive(42, 3) == Derive(43, 3) {
		t.Fatalf("base seed ignored")
	}
}
