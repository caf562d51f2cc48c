package strategy

import (
	"fmt"

	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/engine"
	"github.com/0xsooki/bribery-zoo/plan"
)

// BribeeParams is the axis of bribee behaviour the game driver sweeps over:
// when (if ever) it hides its own settlement evidence, whether it forwards
// its secret votes as soon as it can, whether it waits until the last
// possible moment to do so, whether it only ever reveals to the deadline's
// proposer rather than broadcasting, and whether an abort still lets
// already-accepted offers run to completion. SendVotesWhenAble is part of
// the swept axis and of Key, but no hook reads it: SendOthersVotes is a
// no-op whatever its value.
type BribeeParams struct {
	BreakBadSlot                         *int
	CensoringFromSlot                    *int
	SendVotesWhenAble                    bool
	LastMinute                           bool
	OnlySendingToDeadlineProposingEntity bool
	FinishOffersRegardlessOfAbort        bool
}

// Key returns a value usable as a map key, since BribeeParams carries
// pointer fields that do not compare usefully with Go's built-in equality.
func (p BribeeParams) Key() string {
	return fmt.Sprintf("break=%s|censor=%s|send=%t|last=%t|onlyDeadline=%t|finish=%t",
		slotKey(p.BreakBadSlot), slotKey(p.CensoringFromSlot), p.SendVotesWhenAble, p.LastMinute,
		p.OnlySendingToDeadlineProposingEntity, p.FinishOffersRegardlessOfAbort)
}

// Bribee accepts attestation offers from a single adversary entity, votes
// its plan-correct branch for every slot it has locked into an accepted
// offer, and reverts to honest voting the moment it aborts unless told to
// finish out its accepted offers regardless.
type Bribee struct {
	byzantine
	Params   BribeeParams
	AdvEntity string

	AcceptedOffers   []actions.OfferBribery
	LockedSlots      map[int]bool
	AlreadyVotedFrom map[int]bool
	pendingTakes     []actions.TakeBribery
}

// NewBribee returns the bribee for entity, willing to accept offers from advEntity.
func NewBribee(baseSlot int, chainString, honestEntity, entity, advEntity string, allEntities []string, params BribeeParams, events *EventLog) *Bribee {
	return &Bribee{
		byzantine: byzantine{
			BaseSlot:     baseSlot,
			ChainString:  chainString,
			HonestEntity: honestEntity,
			Entity:       entity,
			AllEntities:  allEntities,
			Plan:         plan.New(baseSlot, chainString, honestEntity),
			Events:       events,
		},
		Params:           params,
		AdvEntity:        advEntity,
		LockedSlots:      map[int]bool{},
		AlreadyVotedFrom: map[int]bool{},
	}
}

func (b *Bribee) ownOfferIDs() map[int]bool {
	m := make(map[int]bool, len(b.AcceptedOffers))
	for _, o := range b.AcceptedOffers {
		m[o.ID] = true
	}
	return m
}

// Build proposes on top of the plan's branch (or the honest head once
// aborted), censoring any take-bribery evidence of its own deal once
// CensoringFromSlot is reached.
func (b *Bribee) Build(e engine.Engine) engine.Engine {
	revertToHonest := b.Aborted && !b.Params.FinishOffersRegardlessOfAbort
	parent := b.Plan.PlanCorrectVotes[e.Slot.Num-1]
	if revertToHonest {
		parent = e.Head(b.Entity)
	}

	ownIDs := b.ownOfferIDs()
	var censorTakes func(actions.TakeBribery) bool
	if b.Params.CensoringFromSlot != nil {
		cutoff := *b.Params.CensoringFromSlot
		censorTakes = func(t actions.TakeBribery) bool {
			if !ownIDs[t.OfferID] {
				return true
			}
			return t.Reference.FromSlot < cutoff
		}
	}

	return e.BuildBlock(e.Slot.Num, parent, allEntitiesSet(b.AllEntities), b.Entity, false, censorTakes, nil)
}

// Vote accepts any fresh offer from AdvEntity (locking its slots), then
// casts this slot's vote: the plan's branch if the slot is locked in and
// the bribee has not reverted to honest voting, its fork-choice head
// otherwise. The vote is cast at once; each bribed vote is also queued as a
// pending take-bribery for TakeBribe to broadcast.
func (b *Bribee) Vote(e engine.Engine) engine.Engine {
	if !b.Aborted {
		for _, offer := range e.EntityOfferKnowledge[b.Entity] {
			if offer.Briber != b.AdvEntity || offer.Bribee != b.Entity {
				continue
			}
			if offerAlreadyAccepted(b.AcceptedOffers, offer.ID) {
				continue
			}
			b.AcceptedOffers = append(b.AcceptedOffers, offer)
			for _, attest := range offer.Attests {
				b.LockedSlots[attest.FromSlot] = true
			}
		}
	}

	revertToHonest := b.Aborted && !b.Params.FinishOffersRegardlessOfAbort
	power := e.EntityToVotingPower[b.Entity]
	slot := e.Slot.Num

	target := e.Head(b.Entity)
	if !revertToHonest && b.LockedSlots[slot] {
		target = b.Plan.PlanCorrectVotes[slot]
		if attest, offerID, ok := findAttest(b.AcceptedOffers, slot); ok {
			b.pendingTakes = append(b.pendingTakes, actions.TakeBribery{
				OfferID:   offerID,
				Reference: attest,
				Vote:      actions.Vote{Entity: b.Entity, FromSlot: slot, MinIndex: 0, MaxIndex: power - 1, ToSlot: target},
				Index:     attestIndex(b.AcceptedOffers, offerID, slot),
			})
		}
	}

	b.AlreadyVotedFrom[slot] = true
	return e.AddVotes([]actions.Vote{{Entity: b.Entity, FromSlot: slot, MinIndex: 0, MaxIndex: power - 1, ToSlot: target}})
}

// TakeBribe broadcasts every pending bribed vote queued by Vote. Broadcast
// audience depends on the timing parameters: OnlySendingToDeadlineProposingEntity
// limits disclosure to the deadline slot's proposer; LastMinute holds each
// take-bribery back until the slot just before its deadline rather than
// sending it the instant the vote was cast.
func (b *Bribee) TakeBribe(e engine.Engine) engine.Engine {
	if len(b.pendingTakes) == 0 {
		return e
	}

	var ready []actions.TakeBribery
	var held []actions.TakeBribery
	for _, t := range b.pendingTakes {
		if b.Params.LastMinute && t.Reference.Deadline-1 > e.Slot.Num {
			held = append(held, t)
			continue
		}
		ready = append(ready, t)
	}
	b.pendingTakes = held
	if len(ready) == 0 {
		return e
	}

	audience := b.AllEntities
	if b.Params.OnlySendingToDeadlineProposingEntity {
		audience = nil
		for _, t := range ready {
			audience = append(audience, e.SlotToOwner[t.Reference.Deadline])
		}
	}
	return e.AddTakeBriberies(broadcastTakes(audience, ready))
}

// SendOthersVotes is a no-op: every vote this bribee casts is already
// public the moment engine.AddVotes accepts it.
func (b *Bribee) SendOthersVotes(e engine.Engine) engine.Engine {
	return e
}

// WithheldBlocks reveals everything withheld so far once the plan's honest
// boundary is reached.
func (b *Bribee) WithheldBlocks(e engine.Engine) engine.Engine {
	if e.Slot.Num >= b.Plan.LastH {
		return b.shareKnowledge(e)
	}
	return e
}

// AdjustStrategy aborts the deal on a voluntary break-slot, a structural
// anomaly, or the adversary itself casting a vote that deviates from the
// plan it promised to build.
func (b *Bribee) AdjustStrategy(e engine.Engine) engine.Engine {
	if b.Aborted {
		return e
	}
	if b.Params.BreakBadSlot != nil && e.Slot.Num >= *b.Params.BreakBadSlot {
		return b.abort(e, "voluntary break bad slot reached")
	}
	if b.structuralAnomaly(e) {
		return b.abort(e, "structural anomaly detected")
	}
	for s := b.BaseSlot; s <= e.Slot.Num; s++ {
		for _, v := range e.SlotToVotes[s] {
			if v.Entity == b.AdvEntity && v.ToSlot != b.Plan.PlanCorrectVotes[s] {
				return b.abort(e, "adversary vote deviates from plan")
			}
		}
	}
	return e
}

func offerAlreadyAccepted(offers []actions.OfferBribery, id int) bool {
	for _, o := range offers {
		if o.ID == id {
			return true
		}
	}
	return false
}

func findAttest(offers []actions.OfferBribery, fromSlot int) (actions.SingleOfferBribery, int, bool) {
	for _, o := range offers {
		for _, attest := range o.Attests {
			if attest.FromSlot == fromSlot {
				return attest, o.ID, true
			}
		}
	}
	return actions.SingleOfferBribery{}, 0, false
}

func attestIndex(offers []actions.OfferBribery, offerID, fromSlot int) int {
	for _, o := range offers {
		if o.ID != offerID {
			continue
		}
		for i, attest := range o.Attests {
			if attest.FromSlot == fromSlot {
				return i
			}
		}
	}
	return 0
}
