package strategy

import (
	"fmt"

	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/engine"
	"github.com/0xsooki/bribery-zoo/plan"
)

// AdversaryParams is the axis of adversary behaviour the game driver sweeps
// over: whether and when it censors take-briberies, whether it tolerates a
// bribee missing its deadline, and an optional voluntary abort slot.
type AdversaryParams struct {
	CensorFromSlot *int
	Patient        bool
	BreakBadSlot   *int
}

// BribeUnits are the per-index economic rates an offer's base/deadline
// reward and payback are priced at: base_reward_unit, deadline_reward_unit
// and deadline_payback_unit respectively. These are economic-sweep
// parameters, not a strategy axis — every adversary strategy in a single
// game uses the same rates — so they live on the Adversary, not on
// AdversaryParams. A zero-valued BribeUnits prices every channel at rate 1,
// i.e. an offer's payment fields carry the raw committee-index count
// (the symbolic unit the equilibrium analyzer's channels 3-5 are denominated
// in before ApplyWeights scales them).
type BribeUnits struct {
	BaseRewardUnit      int64
	DeadlineRewardUnit  int64
	DeadlinePaybackUnit int64
}

func unitRate(v int64) int64 {
	if v == 0 {
		return 1
	}
	return v
}

func slotKey(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *p)
}

// Key returns a value usable as a map key, since AdversaryParams carries
// pointer fields that do not compare usefully with Go's built-in equality.
func (p AdversaryParams) Key() string {
	return fmt.Sprintf("censor=%s|patient=%t|break=%s", slotKey(p.CensorFromSlot), p.Patient, slotKey(p.BreakBadSlot))
}

// Adversary withholds its own blocks until the plan's honest boundary,
// extends bribery offers to recruit bribees into voting for its branch, and
// reconsiders every slot whether the attack it committed to is still worth
// running.
type Adversary struct {
	byzantine
	Params AdversaryParams
	Units  BribeUnits

	BribeeEntities     map[string]bool
	CooperatingBribees map[string]bool
	Offers             []actions.OfferBribery
	nextOfferID        int
}

// NewAdversary returns the adversary for entity, targeting the given plan
// and willing to recruit bribeeEntities.
func NewAdversary(baseSlot int, chainString, honestEntity, entity string, allEntities []string, bribeeEntities map[string]bool, params AdversaryParams, events *EventLog) *Adversary {
	cooperating := make(map[string]bool, len(bribeeEntities))
	for b := range bribeeEntities {
		cooperating[b] = true
	}
	return &Adversary{
		byzantine: byzantine{
			BaseSlot:     baseSlot,
			ChainString:  chainString,
			HonestEntity: honestEntity,
			Entity:       entity,
			AllEntities:  allEntities,
			Plan:         plan.New(baseSlot, chainString, honestEntity),
			Events:       events,
		},
		Params:             params,
		BribeeEntities:     bribeeEntities,
		CooperatingBribees: cooperating,
	}
}

// Build proposes on top of the plan's branch while the attack is live and
// the plan's honest boundary has not been reached, showing the block only to
// the owners of the slots before that boundary (never the honest entity);
// from the boundary on, or once aborted, it builds publicly on its own
// fork-choice head.
func (a *Adversary) Build(e engine.Engine) engine.Engine {
	parent := a.Plan.PlanCorrectVotes[e.Slot.Num-1]

	var knowledge map[string]bool
	if !a.Aborted && e.Slot.Num < a.Plan.LastH {
		knowledge = windowEntities(a.ChainString, a.BaseSlot, e.Slot.Num, a.Plan.LastH)
		a.WithheldSlots = append(a.WithheldSlots, e.Slot.Num)
	} else {
		parent = e.Head(a.Entity)
		knowledge = allEntitiesSet(a.AllEntities)
	}

	var censorTakes func(actions.TakeBribery) bool
	if a.Params.CensorFromSlot != nil {
		cutoff := *a.Params.CensorFromSlot
		censorTakes = func(t actions.TakeBribery) bool { return t.Reference.FromSlot < cutoff }
	}

	return e.BuildBlock(e.Slot.Num, parent, knowledge, a.Entity, false, censorTakes, nil)
}

// OfferBribe extends a fresh bundle of attestation offers, covering every
// slot between now and the next honest-owned slot, to every still-cooperating
// bribee that has not been offered one yet. Each single offer asks for a vote
// on the plan's correct target for its from_slot.
func (a *Adversary) OfferBribe(e engine.Engine) engine.Engine {
	if a.Aborted {
		return e
	}

	nextHonest := a.Plan.LastH
	for s := e.Slot.Num; s <= a.BaseSlot+len(a.ChainString); s++ {
		if e.SlotToOwner[s] == a.HonestEntity {
			nextHonest = s
			break
		}
	}
	deadline := nextHonest
	if deadline <= e.Slot.Num {
		deadline = e.Slot.Num + 1
	}

	var votingSlots []int
	for s := e.Slot.Num; s < deadline; s++ {
		votingSlots = append(votingSlots, s)
	}
	if len(votingSlots) == 0 {
		return e
	}

	var fresh []actions.OfferBribery
	for bribee := range a.BribeeEntities {
		if !a.CooperatingBribees[bribee] {
			continue
		}
		alreadyOffered := false
		for _, o := range a.Offers {
			if o.Bribee == bribee {
				alreadyOffered = true
				break
			}
		}
		if alreadyOffered {
			continue
		}
		power, ok := e.EntityToVotingPower[bribee]
		if !ok {
			continue
		}

		attests := make([]actions.SingleOfferBribery, len(votingSlots))
		allIndices := int64(0)
		for i, s := range votingSlots {
			attests[i] = actions.SingleOfferBribery{
				MinIndex: 0, MaxIndex: power - 1, FromSlot: s, Slot: a.Plan.PlanCorrectVotes[s], Deadline: deadline,
			}
			allIndices += int64(power)
		}

		offer := actions.OfferBribery{
			ID:              a.nextOfferID,
			Attests:         attests,
			BaseReward:      unitRate(a.Units.BaseRewardUnit) * allIndices,
			DeadlineReward:  unitRate(a.Units.DeadlineRewardUnit) * allIndices,
			DeadlinePayback: unitRate(a.Units.DeadlinePaybackUnit) * allIndices,
			Bribee:          bribee,
			Briber:          a.Entity,
			BribedProposer:  e.SlotToOwner[deadline],
			IncludedSlots:   a.Plan.Included,
			ExcludedSlots:   a.Plan.Excluded,
		}
		a.nextOfferID++
		a.Offers = append(a.Offers, offer)
		fresh = append(fresh, offer)
	}
	if len(fresh) == 0 {
		return e
	}
	return e.AddOfferBribery(broadcastOffers(a.AllEntities, fresh))
}

// Vote casts the adversary's full voting power for the plan's branch, or
// for its honest fork-choice head once it has aborted.
func (a *Adversary) Vote(e engine.Engine) engine.Engine {
	power := e.EntityToVotingPower[a.Entity]
	target := a.Plan.PlanCorrectVotes[e.Slot.Num]
	if a.Aborted {
		target = e.Head(a.Entity)
	}
	return e.AddVotes([]actions.Vote{{
		Entity: a.Entity, FromSlot: e.Slot.Num, MinIndex: 0, MaxIndex: power - 1, ToSlot: target,
	}})
}

// SendOthersVotes is a no-op for the adversary: every vote it casts is
// already public the moment engine.AddVotes accepts it, so there is nothing
// left to rebroadcast.
func (a *Adversary) SendOthersVotes(e engine.Engine) engine.Engine {
	return e
}

// WithheldBlocks reveals everything withheld so far once the plan's honest
// boundary is reached.
func (a *Adversary) WithheldBlocks(e engine.Engine) engine.Engine {
	if e.Slot.Num >= a.Plan.LastH {
		return a.shareKnowledge(e)
	}
	return e
}

// AdjustStrategy reconsiders the attack every slot: a voluntary break-slot
// or a structural anomaly ends it outright; a bribee that missed its
// deadline is blacklisted unless Patient is set, and losing a future
// proposer to blacklisting ends the attack too, since the plan's branch can
// no longer be built.
func (a *Adversary) AdjustStrategy(e engine.Engine) engine.Engine {
	if a.Aborted {
		return e
	}
	if a.Params.BreakBadSlot != nil && e.Slot.Num >= *a.Params.BreakBadSlot {
		return a.abort(e, "voluntary break bad slot reached")
	}
	if a.structuralAnomaly(e) {
		return a.abort(e, "structural anomaly detected")
	}

	if !a.Params.Patient {
		for _, offer := range a.Offers {
			state, ok := e.PayToAttestStates[offer.ID]
			if !ok || state.Paid || state.AllAchieved() {
				continue
			}
			missed := false
			for _, attest := range offer.Attests {
				if e.Slot.Num > attest.Deadline {
					missed = true
					break
				}
			}
			if missed {
				delete(a.CooperatingBribees, offer.Bribee)
			}
		}
	}

	for s := e.Slot.Num; s < a.Plan.LastH; s++ {
		owner := e.SlotToOwner[s]
		if a.BribeeEntities[owner] && !a.CooperatingBribees[owner] {
			return a.abort(e, fmt.Sprintf("bribee %s owning slot %d is no longer cooperating", owner, s))
		}
	}

	return e
}
