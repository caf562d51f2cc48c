package cache

import (
	"path/filepath"
	"testing"

	"github.com/0xsooki/bribery-zoo/analyzer"
)

func TestPrecompileKeyIsStableAcrossMapIterationOrder(t *testing.T) {
	a, err := PrecompileKey("HA", map[string]int{"H": 2, "A": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := PrecompileKey("HA", map[string]int{"A": 1, "H": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("PrecompileKey must not depend on map iteration order")
	}
}

func TestPrecompileKeyDiffersFromWeightKey(t *testing.T) {
	pk, err := PrecompileKey("HA", map[string]int{"H": 2, "A": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wk, err := WeightKey("HA", map[string]int{"H": 2, "A": 1}, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pk) == string(wk) {
		t.Fatal("precompile and weight keys for the same scenario must not collide")
	}
}

func TestWeightKeyDiffersAcrossWeights(t *testing.T) {
	a, err := WeightKey("HA", map[string]int{"H": 1}, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := WeightKey("HA", map[string]int{"H": 1}, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a) == string(b) {
		t.Fatal("distinct weight vectors must hash to distinct keys")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "cache")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("Get = %q, want %q", got, "v")
	}
}

func TestStoreGetMissReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get([]byte("missing")); err != ErrNotFound {
		t.Fatalf("Get on a miss = %v, want ErrNotFound", err)
	}
}

func TestBundleRoundTripPreservesNegativeCells(t *testing.T) {
	s := openTestStore(t)
	pre := analyzer.NewTensor([]int{2, 2})
	pre.Set(-17, 0, 0)
	pre.Set(42, 1, 1)
	want := Bundle{Pre: pre, Players: []string{"A", "B"}}

	powers := map[string]int{"A": 1, "B": 1}
	if err := s.PutBundle("HA", powers, want); err != nil {
		t.Fatalf("PutBundle: %v", err)
	}
	got, ok, err := s.GetBundle("HA", powers)
	if err != nil {
		t.Fatalf("GetBundle: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.Pre.At(0, 0) != -17 || got.Pre.At(1, 1) != 42 {
		t.Fatalf("round-tripped tensor cells = (%d, %d), want (-17, 42)", got.Pre.At(0, 0), got.Pre.At(1, 1))
	}
	if len(got.Players) != 2 || got.Players[0] != "A" || got.Players[1] != "B" {
		t.Fatalf("round-tripped players = %v, want [A B]", got.Players)
	}
}

func TestGetBundleMissWhenNeverWritten(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetBundle("XY", map[string]int{"X": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected a cache miss")
	}
}

func TestWeightTableRoundTrip(t *testing.T) {
	s := openTestStore(t)
	powers := map[string]int{"H": 2, "A": 1}
	wt := WeightTable{
		Weights:  analyzer.Weights{BlockReward: 5, SuccessReward: 100},
		MaxRatio: 2.5,
		Equilibria: []EquilibriumEntry{
			{Profile: []int{1, 0}, Rewards: []int64{-3, 7}},
		},
	}
	if err := s.PutWeightTable("HA", powers, wt); err != nil {
		t.Fatalf("PutWeightTable: %v", err)
	}
	got, ok, err := s.GetWeightTable("HA", powers, 5, 100)
	if err != nil {
		t.Fatalf("GetWeightTable: %v", err)
	}
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if got.MaxRatio != 2.5 {
		t.Fatalf("MaxRatio = %v, want 2.5", got.MaxRatio)
	}
	if len(got.Equilibria) != 1 || got.Equilibria[0].Rewards[0] != -3 || got.Equilibria[0].Rewards[1] != 7 {
		t.Fatalf("round-tripped equilibria = %+v", got.Equilibria)
	}
}
