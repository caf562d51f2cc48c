package params

import "testing"

func fullAgreement() VoteFractions {
	return VoteFractions{Source: 1, Target: 1, Head: 1}
}

func TestAttestationBaseRewardFullyTimelyGrantsEverythingScaledByFraction(t *testing.T) {
	frac := VoteFractions{Source: 0.8, Target: 0.8, Head: 0.5}
	reward, punishment := AttestationBaseReward(3, 1, frac)
	want := (float64(WeightSource)*frac.Source + float64(WeightTarget)*frac.Target + float64(WeightHead)*frac.Head) / WSum
	if reward != want {
		t.Fatalf("reward = %v, want %v", reward, want)
	}
	if punishment != 0 {
		t.Fatalf("punishment = %v, want 0", punishment)
	}
}

func TestAttestationBaseRewardTimeliness3DropsHeadTermPastFirstBucket(t *testing.T) {
	// Past distance 1, timeliness 3 behaves like timeliness 2: source and
	// target credited, head neither granted nor punished.
	reward, punishment := AttestationBaseReward(3, 2, fullAgreement())
	want := (float64(WeightSource) + float64(WeightTarget)) / WSum
	if reward != want {
		t.Fatalf("reward = %v, want %v", reward, want)
	}
	if punishment != 0 {
		t.Fatalf("punishment = %v, want 0", punishment)
	}
}

func TestAttestationBaseRewardMissedEverything(t *testing.T) {
	reward, punishment := AttestationBaseReward(0, 1, fullAgreement())
	if reward != 0 {
		t.Fatalf("reward = %v, want 0", reward)
	}
	want := -(float64(WeightSource) + float64(WeightTarget)) / WSum
	if punishment != want {
		t.Fatalf("punishment = %v, want %v", punishment, want)
	}
}

func TestAttestationBaseRewardMissedEverythingNeverReferencesHead(t *testing.T) {
	// timeliness 0 punishes source and target only: a vote with no correct
	// source carries no information about the head it might have agreed
	// on, so a zero head fraction must not change the result.
	_, withZeroHead := AttestationBaseReward(0, 1, VoteFractions{Source: 1, Target: 1, Head: 0})
	_, withFullHead := AttestationBaseReward(0, 1, fullAgreement())
	if withZeroHead != withFullHead {
		t.Fatalf("punishment changed with head fraction: %v vs %v", withZeroHead, withFullHead)
	}
}

func TestAttestationBaseRewardSourceOnlyDecaysWithDistance(t *testing.T) {
	// timeliness 1 (source only) stays credited up to a distance of 5, then
	// the whole vote is treated as missed past that.
	reward, punishment := AttestationBaseReward(1, 5, fullAgreement())
	if reward != float64(WeightSource)/WSum {
		t.Fatalf("reward at distance 5 = %v, want %v", reward, float64(WeightSource)/WSum)
	}
	if punishment != -float64(WeightTarget)/WSum {
		t.Fatalf("punishment at distance 5 = %v, want %v", punishment, -float64(WeightTarget)/WSum)
	}

	reward, punishment = AttestationBaseReward(1, 6, fullAgreement())
	if reward != 0 {
		t.Fatalf("reward at distance 6 = %v, want 0", reward)
	}
	want := -(float64(WeightSource) + float64(WeightTarget)) / WSum
	if punishment != want {
		t.Fatalf("punishment at distance 6 = %v, want %v", punishment, want)
	}
}

func TestAttestationBaseRewardTimeliness2Bucket2FlipsSourceToPunishment(t *testing.T) {
	reward, punishment := AttestationBaseReward(2, 6, fullAgreement())
	if reward != float64(WeightTarget)/WSum {
		t.Fatalf("reward at bucket 2 = %v, want %v", reward, float64(WeightTarget)/WSum)
	}
	if punishment != -float64(WeightSource)/WSum {
		t.Fatalf("punishment at bucket 2 = %v, want %v", punishment, -float64(WeightSource)/WSum)
	}
}

func TestAttestationBaseRewardPanicsOnNonPositiveDistance(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for a non-positive slot distance")
		}
	}()
	AttestationBaseReward(3, 0, fullAgreement())
}

func TestAttestationBaseRewardPanicsOnTimelinessOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an out-of-range timeliness")
		}
	}()
	AttestationBaseReward(4, 1, fullAgreement())
}

func TestSlotAddCarriesIntoNextSlotOnPhaseOverflow(t *testing.T) {
	s := Slot{Num: 5, Phase: 1}.Add(1)
	if s.Num != 6 || s.Phase != 0 {
		t.Fatalf("Slot{5,1}.Add(1) = %+v, want {6,0}", s)
	}
}

func TestSlotLessAndLessOrEqual(t *testing.T) {
	a := Slot{Num: 3, Phase: 0}
	b := Slot{Num: 3, Phase: 1}
	if !a.Less(b) {
		t.Fatal("expected phase 0 to order before phase 1 within the same slot")
	}
	if !a.LessOrEqual(a) {
		t.Fatal("expected a slot to be LessOrEqual to itself")
	}
	if b.Less(a) {
		t.Fatal("phase 1 should not order before phase 0 within the same slot")
	}
}
