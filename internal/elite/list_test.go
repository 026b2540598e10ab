package elite

import (
	"math/rand"
	"sort"
	"testing"

	"neurosnake/internal/nn"
)

func newNet(t *testing.T, rng *rand.Rand) *nn.Network {
	t.Helper()
	net, err := nn.New(nn.Config{Inputs: 8, Outputs: 4, HiddenLayers: 1, NeuronsPerHidden: 4}, rng)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	return net
}

func assertDescending(t *testing.T, list *List) {
	t.Helper()
	entries := list.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Fitness < entries[i].Fitness {
			t.Fatalf("order violated at %d: %f < %f", i, entries[i-1].Fitness, entries[i].Fitness)
		}
	}
}

func TestEmptyList(t *testing.T) {
	list := NewList(3)
	if list.Best() != nil {
		t.Fatal("expected nil best on empty list")
	}
	if list.PickRandom(rand.New(rand.NewSource(1)), nil) != nil {
		t.Fatal("expected nil pick on empty list")
	}
	if list.Count() != 0 {
		t.Fatalf("unexpected count: %d", list.Count())
	}
	if _, ok := list.BestFitness(); ok {
		t.Fatal("expected no best fitness")
	}
}

func TestAddKeepsDescendingOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	list := NewList(20)
	for _, fitness := range []float32{3, 9, 1, 7, 7, 12, 0, 5} {
		list.Add(newNet(t, rng), fitness)
		assertDescending(t, list)
	}
	if list.Count() != 8 {
		t.Fatalf("unexpected count: %d", list.Count())
	}
	if got, _ := list.BestFitness(); got != 12 {
		t.Fatalf("unexpected best fitness: %f", got)
	}
}

func TestAddPlacesTiesAfterExistingEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	list := NewList(5)
	first := newNet(t, rng)
	second := newNet(t, rng)
	worse := newNet(t, rng)

	list.Add(first, 4)
	list.Add(worse, 1)
	list.Add(second, 4)

	entries := list.Entries()
	if entries[0].Network != first || entries[1].Network != second || entries[2].Network != worse {
		t.Fatal("expected equal fitness to be inserted after the existing entry")
	}
	if list.Best() != first {
		t.Fatal("expected head to stay the earlier equal entry")
	}
}

func TestAddNewBestBecomesHead(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	list := NewList(5)
	list.Add(newNet(t, rng), 2)
	best := newNet(t, rng)
	list.Add(best, 8)
	if list.Best() != best {
		t.Fatal("expected better network at head")
	}
}

func TestAddEvictsWorstBeyondCapacity(t *testing.T) {
	const maxLen = 4
	rng := rand.New(rand.NewSource(4))
	list := NewList(maxLen)

	fitnesses := []float32{5, 1, 9, 3, 7, 2, 8, 6, 4}
	for _, f := range fitnesses {
		list.Add(newNet(t, rng), f)
		if list.Count() > maxLen {
			t.Fatalf("count %d exceeds capacity", list.Count())
		}
		assertDescending(t, list)
	}

	sorted := append([]float32(nil), fitnesses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	entries := list.Entries()
	if len(entries) != maxLen {
		t.Fatalf("unexpected count: %d", len(entries))
	}
	for i := 0; i < maxLen; i++ {
		if entries[i].Fitness != sorted[i] {
			t.Fatalf("entry %d: got=%f want=%f", i, entries[i].Fitness, sorted[i])
		}
	}
}

func TestAddReportsRetention(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	list := NewList(2)
	if !list.Add(newNet(t, rng), 5) || !list.Add(newNet(t, rng), 4) {
		t.Fatal("expected members to be retained under capacity")
	}
	if list.Add(newNet(t, rng), 1) {
		t.Fatal("expected worst network to be evicted immediately")
	}
	if !list.Add(newNet(t, rng), 6) {
		t.Fatal("expected better network to be retained")
	}
	if list.Count() != 2 {
		t.Fatalf("unexpected count: %d", list.Count())
	}
}

func TestPickRandomSingleMemberReturnsExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	list := NewList(3)
	only := newNet(t, rng)
	list.Add(only, 1)
	if got := list.PickRandom(rng, only); got != only {
		t.Fatal("expected the only member even when excluded")
	}
}

func TestPickRandomNeverReturnsExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	list := NewList(5)
	nets := make([]*nn.Network, 0, 5)
	for i := 0; i < 5; i++ {
		net := newNet(t, rng)
		nets = append(nets, net)
		list.Add(net, float32(i))
	}

	exclude := list.Best()
	seen := map[*nn.Network]bool{}
	for i := 0; i < 500; i++ {
		got := list.PickRandom(rng, exclude)
		if got == exclude {
			t.Fatal("picked excluded network")
		}
		seen[got] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected every other member to be picked, saw %d", len(seen))
	}
}

func TestClear(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	list := NewList(3)
	list.Add(newNet(t, rng), 1)
	list.Add(newNet(t, rng), 2)
	list.Clear()
	if list.Count() != 0 || list.Best() != nil {
		t.Fatal("expected empty list after clear")
	}
	list.Add(newNet(t, rng), 3)
	if list.Count() != 1 {
		t.Fatalf("expected list to be reusable, count=%d", list.Count())
	}
}

func TestZeroCapacityRetainsNothing(t *testing.T) {
	list := NewList(0)
	if list.Add(newNet(t, rand.New(rand.NewSource(9))), 10) {
		t.Fatal("expected zero capacity list to drop every network")
	}
	if list.Count() != 0 {
		t.Fatalf("unexpected count: %d", list.Count())
	}
}
