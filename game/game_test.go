package game

import (
	"testing"

	"github.com/0xsooki/bribery-zoo/strategy"
)

func tinyGame() Game {
	return Game{
		BaseSlot:            0,
		ChainString:         "HA",
		HonestEntity:        "H",
		AdversaryEntity:     "A",
		BribeeEntities:      nil,
		EntityToVotingPower: map[string]int{"H": 2, "A": 1},
	}
}

func TestAllEntitiesOrdersHonestAdversaryThenSortedBribees(t *testing.T) {
	g := tinyGame()
	g.BribeeEntities = []string{"C", "B"}
	got := g.AllEntities()
	want := []string{"H", "A", "B", "C"}
	if len(got) != len(want) {
		t.Fatalf("AllEntities() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllEntities() = %v, want %v", got, want)
		}
	}
}

func TestWindowSlotsAndEntityOwnedSlots(t *testing.T) {
	g := tinyGame()
	if got := g.windowSlots(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("windowSlots() = %v", got)
	}
	if got := g.entityOwnedSlots("H"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("entityOwnedSlots(H) = %v", got)
	}
	if got := g.entityOwnedSlots("A"); len(got) != 1 || got[0] != 2 {
		t.Fatalf("entityOwnedSlots(A) = %v", got)
	}
}

func TestPlayHonestOnlyAdversaryDoesNotSucceed(t *testing.T) {
	g := tinyGame()
	rr := Play(g, strategy.AdversaryParams{}, map[string]strategy.BribeeParams{})
	if rr.Failed {
		t.Fatalf("unexpected failure: %v", rr.Err)
	}
	if rr.Success() {
		t.Fatal("an adversary that never deviates should not succeed")
	}
}

func TestCompileRunTableShapeMatchesAxisCounts(t *testing.T) {
	g := tinyGame()
	g.BribeeEntities = []string{"B"}
	g.EntityToVotingPower["B"] = 1
	rt, err := CompileRunTable(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shape := rt.AxisShape()
	if len(shape) != 2 {
		t.Fatalf("expected a 2-axis grid (adversary, 1 bribee), got %v", shape)
	}
	wantCells := 1
	for _, n := range shape {
		wantCells *= n
	}
	if len(rt.Results) != wantCells {
		t.Fatalf("expected %d played cells, got %d", wantCells, len(rt.Results))
	}
}

func TestProfileKeyIsStableAcrossEquivalentMaps(t *testing.T) {
	g := tinyGame()
	adv := g.AllAdvStrategies()[0]
	a := map[string]strategy.BribeeParams{"B": {}, "C": {}}
	b := map[string]strategy.BribeeParams{"C": {}, "B": {}}
	if ProfileKey(adv, a) != ProfileKey(adv, b) {
		t.Fatal("ProfileKey should not depend on map iteration order")
	}
}

func TestAllBribeeStrategiesIncludesTheNothingExtraOption(t *testing.T) {
	g := tinyGame()
	g.BribeeEntities = []string{"B"}
	strategies := g.AllBribeeStrategies("B")
	if len(strategies) == 0 {
		t.Fatal("expected a non-empty strategy axis")
	}
	first := strategies[0]
	if first.CensoringFromSlot != nil || first.BreakBadSlot != nil {
		t.Fatalf("expected the first bribee strategy to be the passive baseline, got %+v", first)
	}
}
