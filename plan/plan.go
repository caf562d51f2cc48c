// Package plan derives the fixed forking plan a byzantine strategy commits
// to for a game's window: given the proposer schedule (chain string) and
// the honest entity's tag, it precomputes which branch the attack targets,
// which branch it must keep off-chain, and the per-slot vote every slot
// owner is supposed to cast under the plan.
//
// Everything here is pure arithmetic over the chain string; none of it
// touches an engine.Engine. Adversary and bribee strategies each compute
// their own Plan once at construction and consult it on every hook call.
package plan

// Plan is the forking plan derived from a chain string and honest entity
// tag, rooted at baseSlot.
type Plan struct {
	BaseSlot     int
	ChainString  string
	HonestEntity string

	// Included is the planned (adversarial) branch: every slot in the
	// window not owned by the honest entity.
	Included map[int]bool
	// Excluded is the complement: every slot owned by the honest entity.
	Excluded map[int]bool

	// PlanCorrectVotes[s] is the correct vote target for slot s under the
	// plan: the greatest slot in (Included ∪ {BaseSlot}) that is <= s.
	PlanCorrectVotes map[int]int
	// BadVotes[s] is the symmetric target using (Excluded ∪ {BaseSlot}),
	// i.e. what the honest entity would be voting for if the plan's
	// branch never existed. Used to detect structural anomalies.
	BadVotes map[int]int

	// LastE is the last slot of the initial adversary-owned prefix of the
	// chain string (BaseSlot if the chain starts with the honest entity).
	LastE int
	// LastH is the first honest-owned slot in the window, the slot at
	// which withheld blocks must be revealed.
	LastH int
}

// New derives the Plan for a chain string over [baseSlot+1, baseSlot+len]
// given which character denotes the honest entity.
func New(baseSlot int, chainString string, honestEntity string) Plan {
	included := map[int]bool{}
	excluded := map[int]bool{}
	for i, c := range chainString {
		slot := baseSlot + 1 + i
		if string(c) != honestEntity {
			included[slot] = true
		} else {
			excluded[slot] = true
		}
	}

	plannedBranch := sortedWithBase(baseSlot, included)
	badBranch := sortedWithBase(baseSlot, excluded)

	p := Plan{
		BaseSlot:         baseSlot,
		ChainString:      chainString,
		HonestEntity:     honestEntity,
		Included:         included,
		Excluded:         excluded,
		PlanCorrectVotes: voteTargets(baseSlot, len(chainString), plannedBranch),
		BadVotes:         voteTargets(baseSlot, len(chainString), badBranch),
	}

	before := true
	firstH := true
	p.LastH = -1
	p.LastE = baseSlot
	for i, c := range chainString {
		slot := baseSlot + 1 + i
		if string(c) == honestEntity {
			before = false
			if firstH {
				p.LastH = slot
				firstH = false
			}
		} else if before {
			p.LastE = slot
		} else {
			firstH = false
		}
	}
	if p.LastH == -1 {
		panic("plan: chain string contains no honest-owned slot")
	}

	return p
}

// sortedWithBase returns the sorted slot numbers in branch, prefixed with
// baseSlot (the synthetic root every branch extends from).
func sortedWithBase(baseSlot int, branch map[int]bool) []int {
	out := make([]int, 0, len(branch)+1)
	out = append(out, baseSlot)
	for s := range branch {
		out = append(out, s)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// voteTargets fills targets[s] for every s in [baseSlot, baseSlot+length]
// with the greatest element of branch that is <= s. branch is sorted and
// always starts with baseSlot, so every slot in range resolves to something.
func voteTargets(baseSlot, length int, branch []int) map[int]int {
	targets := make(map[int]int, length+1)
	idx := len(branch) - 1
	for slot := baseSlot + length; slot >= baseSlot; slot-- {
		for idx > 0 && branch[idx] > slot {
			idx--
		}
		targets[slot] = branch[idx]
	}
	return targets
}
