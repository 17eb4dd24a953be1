package yard

import "testing"

func actionString(route []Action) string {
	b := make([]byte, len(route))
	for i, a := range route {
		b[i] = byte(a)
	}
	return string(b)
}

func TestDirect_VerticalFirst(t *testing.T) {
	cases := []struct {
		from, to Pos
		want     string
	}{
		{Pos{0, 0}, Pos{2, 3}, "DDRRR"},
		{Pos{4, 4}, Pos{1, 2}, "UUULL"},
		{Pos{2, 2}, Pos{2, 2}, ""},
	}
	for _, tc := range cases {
		if got := actionString(Direct(tc.from, tc.to)); got != tc.want {
			t.Fatalf("Direct(%v,%v)=%q want=%q", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestLoadedRoute_AroundContainers(t *testing.T) {
	g := NewGrid(5)
	for r := 0; r < 4; r++ {
		g.Set(Pos{r, 2}, ContainerCell(r))
	}
	cranes := NewFleet(5)
	// park the other cranes out of the way on the entry column below
	c := cranes[1]
	c.Pos = Pos{0, 1}
	c.Load = 20
	cranes[0].Pos = Pos{4, 0}
	for i := 2; i < 5; i++ {
		cranes[i].Pos = Pos{i - 2, 0}
	}
	prev := TakeSnapshot(cranes)
	route, ok := LoadedRoute(c.ID, c.Kind, c.Pos, Pos{0, 3}, g, cranes, prev)
	if !ok {
		t.Fatalf("no route around the wall")
	}
	if len(route) != 10 {
		t.Fatalf("route=%q len=%d want=10", actionString(route), len(route))
	}
	at := c.Pos
	for _, a := range route {
		at = at.Add(a.Delta())
		if !g.At(at).IsEmpty() {
			t.Fatalf("route %q crosses container at %v", actionString(route), at)
		}
	}
	if at != (Pos{0, 3}) {
		t.Fatalf("route ends at %v", at)
	}

	g.Set(Pos{4, 2}, ContainerCell(4))
	if _, ok := LoadedRoute(c.ID, c.Kind, c.Pos, Pos{0, 3}, g, cranes, prev); ok {
		t.Fatalf("route found through a full column")
	}
}

func TestRouteCost_Ordering(t *testing.T) {
	a := RouteCost{Len: 3, Residual: 1}
	b := RouteCost{Len: 1, Residual: 3}
	if !a.less(b) || b.less(a) {
		t.Fatalf("equal totals must prefer the smaller residual")
	}
	if !(RouteCost{Len: 1, Residual: 1}).less(a) {
		t.Fatalf("smaller total must win")
	}
}
