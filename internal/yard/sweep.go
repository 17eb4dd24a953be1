package yard

import "math/rand"

// Sweep is a named opening: the depth each row's crane stages containers to.
type Sweep struct {
	Name   string `yaml:"name" toml:"name" json:"name"`
	Depths []int  `yaml:"depths" toml:"depths" json:"depths"`
}

// DefaultSweeps are the openings tried when no config overrides them.
var DefaultSweeps = []Sweep{
	{Name: "full", Depths: []int{3, 3, 3, 3, 3}},
	{Name: "two", Depths: []int{2, 2, 2, 2, 2}},
	{Name: "one", Depths: []int{1, 1, 1, 1, 1}},
	{Name: "none", Depths: []int{0, 0, 0, 0, 0}},
	{Name: "e-shape", Depths: []int{3, 1, 3, 1, 3}},
	{Name: "comb", Depths: []int{2, 0, 2, 0, 2}},
}

// MixedSweep picks an independent depth for every row.
func MixedSweep(rng *rand.Rand, n int) Sweep {
	d := make([]int, n)
	for i := range d {
		d[i] = rng.Intn(n - 1)
	}
	return Sweep{Name: "mixed", Depths: d}
}

// Script stages depth containers of one row, deepest first, ending on the last drop.
func Script(depth, n int) []Action {
	if depth > n-2 {
		depth = n - 2
	}
	var out []Action
	for k := 0; k < depth; k++ {
		out = append(out, Lift)
		for i := 0; i < depth-k; i++ {
			out = append(out, Right)
		}
		out = append(out, Drop)
		if k == depth-1 {
			break
		}
		for i := 0; i < depth-k; i++ {
			out = append(out, Left)
		}
	}
	return out
}

// SweepScripts builds one script per crane, padded with waits to a common length.
// Rows without a depth get none.
func SweepScripts(depths []int, n int) [][]Step {
	scripts := make([][]Action, n)
	width := 0
	for i := range scripts {
		if i < len(depths) && depths[i] > 0 {
			scripts[i] = Script(depths[i], n)
		}
		if len(scripts[i]) > width {
			width = len(scripts[i])
		}
	}
	out := make([][]Step, n)
	for i, sc := range scripts {
		out[i] = make([]Step, width)
		for t := range out[i] {
			out[i][t] = Step{Act: Wait, Want: -1}
			if t < len(sc) {
				out[i][t].Act = sc[t]
			}
		}
	}
	return out
}
