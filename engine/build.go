package engine

import (
	"sort"

	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/params"
)

const protocolSource = "\x00protocol"
const burnSink = "\x00burn"

// ancestors returns the slot numbers on the chain from slot back to
// BaseSlot, inclusive, walking parent pointers.
func (e Engine) ancestors(slot int) []int {
	var out []int
	for s := slot; ; {
		out = append(out, s)
		if s == e.BaseSlot {
			break
		}
		b, ok := e.Blocks[s]
		if !ok {
			violate("engine: no block on file for ancestor slot %d", s)
		}
		s = b.ParentSlot
	}
	return out
}

func containsAny(ancestors []int, slots map[int]bool) bool {
	if len(slots) == 0 {
		return false
	}
	for _, a := range ancestors {
		if slots[a] {
			return true
		}
	}
	return false
}

// BuildBlock is the central state transition: it settles any bribery
// claims that just became fully achieved, computes which previously-cast
// votes this block newly includes, pays consensus rewards for them, and
// seals a new Block on top of parentSlot.
//
// knowledge names which entities learn of this block immediately; entity
// (the proposer) always learns of its own block regardless. final marks
// the last block of the game, at which point any bribe whose escrow was
// never settled is burned rather than left unaccounted for.
func (e Engine) BuildBlock(
	slot, parentSlot int,
	knowledge map[string]bool,
	entity string,
	final bool,
	censorTakeBriberies func(actions.TakeBribery) bool,
	censorVotes func(actions.Vote) bool,
) Engine {
	n := e.clone()

	ancestorSlots := n.ancestors(parentSlot)
	ancestorSet := map[int]bool{}
	includedVotes := map[actions.Vote]bool{}
	for _, s := range ancestorSlots {
		ancestorSet[s] = true
		for _, v := range n.Blocks[s].Votes {
			includedVotes[v] = true
		}
	}

	wallet := n.Blocks[parentSlot].WalletState

	// Settle bribery claims the proposer actually holds that survive
	// censorship. A proposer only ever settles its own take_briberies: this
	// is what lets a bribee withhold a claim from every proposer but the
	// one its offer names as BribedProposer.
	for _, t := range n.TakeBriberies[entity] {
		if censorTakeBriberies != nil && !censorTakeBriberies(t) {
			continue
		}
		state, ok := n.PayToAttestStates[t.OfferID]
		if !ok || state.Paid || (t.Index < len(state.Achieved) && state.Achieved[t.Index]) {
			continue
		}
		beforeDeadline := slot <= t.Reference.Deadline
		state = state.Achieve(t.Index, beforeDeadline)
		if !state.AllAchieved() {
			n.PayToAttestStates[t.OfferID] = state
			continue
		}

		offer := state.Offer
		wallet = wallet.Pay(actions.Payment{
			From: offer.Briber, To: offer.Bribee, Amount: offer.BaseReward,
			Channel: actions.ChannelBaseReward, Comment: "base reward",
		})

		onIncluded := containsAny(ancestorSlots, offer.IncludedSlots) || offer.IncludedSlots[slot]
		onExcluded := containsAny(ancestorSlots, offer.ExcludedSlots) || offer.ExcludedSlots[slot]
		var extraFunds int64
		if state.BeforeDeadline && onIncluded && !onExcluded {
			wallet = wallet.Pay(actions.Payment{
				From: offer.Briber, To: offer.Bribee, Amount: offer.DeadlineReward,
				Channel: actions.ChannelDeadlineReward, Comment: "deadline reward",
			})
			wallet = wallet.Pay(actions.Payment{
				From: offer.Briber, To: offer.BribedProposer, Amount: offer.DeadlinePayback,
				Channel: actions.ChannelDeadlinePayback, Comment: "deadline payback",
			})
		} else {
			extraFunds = offer.DeadlineReward + offer.DeadlinePayback
		}
		n.PayToAttestStates[t.OfferID] = state.Pay(extraFunds)
	}

	// Burn any bribe whose escrow was never settled by the final block.
	if final {
		for id, state := range n.PayToAttestStates {
			if state.Paid {
				continue
			}
			burned := state.Offer.DeadlineReward + state.Offer.DeadlinePayback
			wallet = wallet.Pay(actions.Payment{
				From: state.Offer.Briber, To: burnSink, Amount: burned,
				Channel: actions.ChannelDeadlinePayback, Comment: "unsettled escrow burned",
			})
			n.PayToAttestStates[id] = state.Pay(burned)
		}
	}

	// Collect every from_slot older than this block whose votes are not
	// already included by an ancestor, subject to censorship.
	fromSlots := make([]int, 0, len(n.SlotToVotes))
	for fs := range n.SlotToVotes {
		if fs < slot {
			fromSlots = append(fromSlots, fs)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(fromSlots)))

	correctHead := func(fromSlot int) int {
		best := n.BaseSlot
		for _, s := range ancestorSlots {
			if s <= fromSlot && s > best {
				best = s
			}
		}
		return best
	}

	var votes []actions.Vote
	for _, fs := range fromSlots {
		// stat is the observed committee agreement for this from_slot,
		// taken over every vote counted so far regardless of whether an
		// ancestor already included it: a validator that attested early
		// still counts toward how much of the committee agreed, even once
		// its vote has already been rewarded once.
		statTotal := int64(0)
		statByTarget := map[int]int64{}
		for _, v := range n.SlotToVotes[fs] {
			statTotal += int64(v.Amount())
			statByTarget[v.ToSlot] += int64(v.Amount())
		}
		head := correctHead(fs)

		for _, v := range n.SlotToVotes[fs] {
			if includedVotes[v] {
				continue
			}
			if censorVotes != nil && !censorVotes(v) {
				continue
			}
			votes = append(votes, v)

			distance := slot - v.FromSlot
			if distance <= 0 {
				continue
			}
			timeliness := 2
			if v.ToSlot == head {
				timeliness = 3
			}
			agreement := float64(statTotal) / float64(params.AttestorsPerSlot)
			frac := params.VoteFractions{
				Source: agreement,
				Target: agreement,
				Head:   float64(statByTarget[v.ToSlot]) / float64(params.AttestorsPerSlot),
			}
			reward, punishment := params.AttestationBaseReward(timeliness, distance, frac)

			scale := float64(params.BaseIncrement) * float64(params.B) * float64(v.Amount())
			rewardScaled := reward * scale
			net := int64(rewardScaled + punishment*scale)

			wallet = wallet.Pay(actions.Payment{
				From: protocolSource, To: v.Entity, Amount: net, Channel: actions.ChannelWallet,
				Comment: "consensus reward",
			})
			extra := int64(rewardScaled * float64(params.WeightProp) / float64(params.WSum-params.WeightProp))
			wallet = wallet.Pay(actions.Payment{
				From: protocolSource, To: entity, Amount: extra, Channel: actions.ChannelWallet,
				Comment: "proposer share",
			})
		}
	}

	payToAttests := make(map[int]actions.PayToAttestState, len(n.PayToAttestStates))
	for k, v := range n.PayToAttestStates {
		payToAttests[k] = v
	}

	n.Blocks[slot] = actions.Block{
		Slot:         slot,
		ParentSlot:   parentSlot,
		Proposer:     entity,
		OnTime:       slot == e.Slot.Num,
		WalletState:  wallet,
		PayToAttests: payToAttests,
		Votes:        votes,
	}

	for ent := range knowledge {
		known := n.KnowledgeOfBlocks[ent]
		m := make(map[int]bool, len(known)+1)
		for s := range known {
			m[s] = true
		}
		m[slot] = true
		n.KnowledgeOfBlocks[ent] = m
	}
	selfKnown := n.KnowledgeOfBlocks[entity]
	m := make(map[int]bool, len(selfKnown)+1)
	for s := range selfKnown {
		m[s] = true
	}
	m[slot] = true
	n.KnowledgeOfBlocks[entity] = m

	return n
}
