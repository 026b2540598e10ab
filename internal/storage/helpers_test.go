package storage

import (
	"math/rand"
	"testing"

	"neurosnake/internal/elite"
	"neurosnake/internal/model"
	"neurosnake/internal/nn"
)

func testStatus(t *testing.T) model.Status {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	cfg := nn.Config{
		Inputs:           8,
		Outputs:          4,
		HiddenLayers:     1,
		NeuronsPerHidden: 3,
		UseBias:          true,
		Hidden:           nn.ActivationTanh,
		Output:           nn.ActivationIdentity,
	}
	elites := elite.NewList(4)
	for _, fitness := range []float32{2.5, 7, 0.25} {
		net, err := nn.New(cfg, rng)
		if err != nil {
			t.Fatalf("new network: %v", err)
		}
		elites.Add(net, fitness)
	}
	return model.Status{
		Generation:      12,
		BestPerformance: 7,
		BestScore:       3.5,
		Elites:          elites,
	}
}

func assertSameStatus(t *testing.T, got, want model.Status) {
	t.Helper()
	if got.Generation != want.Generation || got.BestPerformance != want.BestPerformance || got.BestScore != want.BestScore {
		t.Fatalf("status scalars got=%d/%f/%f want=%d/%f/%f",
			got.Generation, got.BestPerformance, got.BestScore,
			want.Generation, want.BestPerformance, want.BestScore)
	}
	if got.Elites.MaxLen() != want.Elites.MaxLen() || got.Elites.Count() != want.Elites.Count() {
		t.Fatalf("elite shape got=%d/%d want=%d/%d",
			got.Elites.MaxLen(), got.Elites.Count(), want.Elites.MaxLen(), want.Elites.Count())
	}
	gotEntries, wantEntries := got.Elites.Entries(), want.Elites.Entries()
	for i := range wantEntries {
		if gotEntries[i].Fitness != wantEntries[i].Fitness {
			t.Fatalf("elite %d fitness got=%f want=%f", i, gotEntries[i].Fitness, wantEntries[i].Fitness)
		}
		if gotEntries[i].Network.Config() != wantEntries[i].Network.Config() {
			t.Fatalf("elite %d config mismatch", i)
		}
		gw, ww := gotEntries[i].Network.Weights(), wantEntries[i].Network.Weights()
		for j := range ww {
			if gw[j] != ww[j] {
				t.Fatalf("elite %d weight %d got=%f want=%f", i, j, gw[j], ww[j])
			}
		}
		gb, wb := gotEntries[i].Network.Biases(), wantEntries[i].Network.Biases()
		for j := range wb {
			if gb[j] != wb[j] {
				t.Fatalf("elite %d bias %d got=%f want=%f", i, j, gb[j], wb[j])
			}
		}
	}
}
