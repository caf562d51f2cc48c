package analyzer

import "testing"

// prisonersDilemma builds a [2,2,2] reward tensor (player, s1, s2) with a
// classic prisoner's-dilemma payoff structure: defect (strategy index 1) is
// a dominant strategy for both players, so (1,1) is the unique pure-strategy
// Nash equilibrium.
func prisonersDilemma() *Tensor {
	r := NewTensor([]int{2, 2, 2})
	// player 0's payoff, indexed [s1][s2]
	r.Set(3, 0, 0, 0)
	r.Set(0, 0, 0, 1)
	r.Set(5, 0, 1, 0)
	r.Set(1, 0, 1, 1)
	// player 1's payoff, indexed [s1][s2]
	r.Set(3, 1, 0, 0)
	r.Set(5, 1, 0, 1)
	r.Set(0, 1, 1, 0)
	r.Set(1, 1, 1, 1)
	return r
}

func TestNashMaskFindsTheDominantStrategyEquilibrium(t *testing.T) {
	mask := NashMask(prisonersDilemma())
	profiles := ProfilesOf(mask)
	if len(profiles) != 1 {
		t.Fatalf("expected exactly one Nash equilibrium, got %v", profiles)
	}
	if profiles[0][0] != 1 || profiles[0][1] != 1 {
		t.Fatalf("expected the equilibrium at (1,1), got %v", profiles[0])
	}
}

func TestCollaborativeRefineIsNoOpWhenOnlyOneNashSurvives(t *testing.T) {
	r := prisonersDilemma()
	mask := NashMask(r)
	refined := CollaborativeRefine(r, mask)
	if len(ProfilesOf(refined)) != 1 {
		t.Fatalf("expected refinement to keep the sole equilibrium, got %v", ProfilesOf(refined))
	}
}

func TestBestAdversaryProfilesNarrowsToMaxPlayerZeroReward(t *testing.T) {
	r := NewTensor([]int{2, 2})
	r.Set(1, 0, 0)
	r.Set(9, 0, 1)
	mask := NewBoolTensor([]int{2}, true)
	narrowed := BestAdversaryProfiles(r, mask)
	if narrowed.At(0) {
		t.Fatal("index 0 should be excluded: player 0's reward there is not the max")
	}
	if !narrowed.At(1) {
		t.Fatal("index 1 should survive: it holds player 0's max reward")
	}
}

func TestBaselineProfileIsAllZero(t *testing.T) {
	got := BaselineProfile([]int{3, 4, 5})
	for _, v := range got {
		if v != 0 {
			t.Fatalf("BaselineProfile should be all zero, got %v", got)
		}
	}
}

func TestCannotMakeItWorseExcludesProfilesBelowBaseline(t *testing.T) {
	// player 0's reward: baseline (0,0)=2, worse at (1,0)=1
	r := NewTensor([]int{1, 2, 1})
	r.Set(2, 0, 0, 0)
	r.Set(1, 0, 1, 0)
	mask := NewBoolTensor([]int{2, 1}, true)
	out := CannotMakeItWorse(r, mask)
	if !out.At(0, 0) {
		t.Fatal("the baseline profile itself must survive")
	}
	if out.At(1, 0) {
		t.Fatal("a profile strictly worse than baseline for player 0 must be excluded")
	}
}
