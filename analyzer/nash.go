package analyzer

// SliceDim0 returns the sub-tensor fixing the leading axis at index,
// dropping it: reward.SliceDim0(p) is player p's reward as a function of
// the strategy-profile grid alone.
func (t *Tensor) SliceDim0(index int) *Tensor {
	shape := t.Shape[1:]
	stride := 1
	for _, n := range shape {
		stride *= n
	}
	data := t.Data[index*stride : (index+1)*stride]
	return &Tensor{Shape: shape, Data: data}
}

// EqualsScalar returns a mask of cells equal to v.
func (t *Tensor) EqualsScalar(v int64) *BoolTensor {
	out := NewBoolTensor(t.Shape, false)
	for i, cell := range t.Data {
		out.Data[i] = cell == v
	}
	return out
}

// globalMaxWhere returns the maximum cell value under mask; ok is false if no
// cell of mask is set.
func globalMaxWhere(t *Tensor, mask *BoolTensor) (max int64, ok bool) {
	for i, include := range mask.Data {
		if !include {
			continue
		}
		if !ok || t.Data[i] > max {
			max = t.Data[i]
			ok = true
		}
	}
	return max, ok
}

// NashMask computes the pure-strategy Nash equilibrium mask over reward's
// strategy-profile grid: a profile survives iff every player is already at
// a best response given the others' choices (spec.md §4.5).
func NashMask(reward *Tensor) *BoolTensor {
	axisShape := reward.Shape[1:]
	n := reward.Shape[0]

	mask := NewBoolTensor(axisShape, true)
	for p := 0; p < n; p++ {
		playerReward := reward.SliceDim0(p)
		maxAlongP := playerReward.MaxAlongAxis(p)
		mask.AndWith(playerReward.EqualsBroadcast(maxAlongP))
	}
	return mask
}

// CollaborativeRefine narrows mask to Nash profiles where every
// non-adversary player (player index != 0) earns the best reward any Nash
// profile offers it — the "pick the equilibrium best for every bribee"
// refinement spec.md §4.5 describes.
func CollaborativeRefine(reward *Tensor, mask *BoolTensor) *BoolTensor {
	n := reward.Shape[0]
	refined := &BoolTensor{Shape: append([]int(nil), mask.Shape...), Data: append([]bool(nil), mask.Data...)}
	for p := 1; p < n; p++ {
		playerReward := reward.SliceDim0(p)
		best, ok := globalMaxWhere(playerReward, refined)
		if !ok {
			continue
		}
		refined.AndWith(playerReward.EqualsScalar(best))
	}
	return refined
}

// BestAdversaryProfiles narrows mask to the profile(s) maximising player 0
// (the adversary)'s reward.
func BestAdversaryProfiles(reward *Tensor, mask *BoolTensor) *BoolTensor {
	advReward := reward.SliceDim0(0)
	best, ok := globalMaxWhere(advReward, mask)
	if !ok {
		return mask
	}
	out := &BoolTensor{Shape: append([]int(nil), mask.Shape...), Data: append([]bool(nil), mask.Data...)}
	out.AndWith(advReward.EqualsScalar(best))
	return out
}

// ProfilesOf enumerates every index tuple set in mask, in row-major order.
func ProfilesOf(mask *BoolTensor) [][]int {
	var out [][]int
	forEachIndex(mask.Shape, func(idx []int) {
		if mask.At(idx...) {
			out = append(out, append([]int(nil), idx...))
		}
	})
	return out
}

// BaselineProfile is the all-zero strategy-profile index, the convention
// this package uses for "every player's most conservative strategy" (the
// first entry game.Game's AllAdvStrategies/AllBribeeStrategies axes put
// first is always the "nothing extra" option: no break slot, no censoring
// cutoff). CannotMakeItWorse filters against it.
func BaselineProfile(shape []int) []int {
	return make([]int, len(shape))
}

// CannotMakeItWorse restricts mask to profiles where every player earns at
// least as much as it would under BaselineProfile — no player is worse off
// than the passive baseline (spec.md §4.5's optional refinement).
func CannotMakeItWorse(reward *Tensor, mask *BoolTensor) *BoolTensor {
	n := reward.Shape[0]
	baseline := BaselineProfile(reward.Shape[1:])
	out := &BoolTensor{Shape: append([]int(nil), mask.Shape...), Data: append([]bool(nil), mask.Data...)}

	for p := 0; p < n; p++ {
		playerReward := reward.SliceDim0(p)
		floor := playerReward.At(baseline...)
		forEachIndex(out.Shape, func(idx []int) {
			if out.At(idx...) && playerReward.At(idx...) < floor {
				out.Set(false, idx...)
			}
		})
	}
	return out
}
