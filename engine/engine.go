// Package engine implements the consensus state machine the bribery-attack
// game is played against: an attestation-weighted, proposer-boosted
// LMD-GHOST fork choice, block building with escrowed bribery payouts, and
// the double-vote detection that makes an accepted bribe risk slashing.
//
// Engine is a persistent snapshot, not a mutable store. Every transition
// (AddVotes, BuildBlock, SlotProgress, ...) takes an Engine by value and
// returns a new one; the receiver is never mutated. This mirrors the
// teacher's own fork-choice store in spirit (vote accounting, subtree
// weight, head selection) but swaps its mutex-guarded mutable map for
// copy-on-write snapshots, since game trees need to branch: a strategy
// exploring "what if I vote this way" must never perturb the branch a
// sibling strategy is exploring from the same starting Engine.
package engine

import (
	"sort"

	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/params"
)

// Engine is one immutable snapshot of chain state.
type Engine struct {
	BaseSlot             int
	ChainString          string
	Slot                 params.Slot
	EntityToVotingPower  map[string]int
	SlotToOwner          map[int]string
	SlotToAllVotes       map[int][]actions.Vote
	SlotToVotes          map[int][]actions.Vote
	KnowledgeOfBlocks    map[string]map[int]bool
	Blocks               map[int]actions.Block
	EntityOfferKnowledge map[string][]actions.OfferBribery
	TakeBriberies        map[string][]actions.TakeBribery
	PayToAttestStates    map[int]actions.PayToAttestState
}

// MakeEngine builds the genesis snapshot for a chain_string describing
// which entity proposes each subsequent slot (e.g. "HAA" means an honest
// proposer at base_slot+1, then the adversary at base_slot+2 and +3).
func MakeEngine(baseSlot int, chainString string, entityToVotingPower map[string]int) Engine {
	slotToOwner := make(map[int]string, len(chainString))
	for i, c := range chainString {
		slotToOwner[baseSlot+1+i] = string(c)
	}

	knowledge := make(map[string]map[int]bool, len(entityToVotingPower))
	for entity := range entityToVotingPower {
		knowledge[entity] = map[int]bool{baseSlot: true}
	}

	genesisWallet := actions.NewWalletState(entityNames(entityToVotingPower))

	return Engine{
		BaseSlot:            baseSlot,
		ChainString:         chainString,
		// Slot.Num starts one ahead of the genesis block: it names the slot
		// about to be built/voted on, not the last sealed one.
		Slot:                params.Slot{Num: baseSlot + 1, Phase: 0},
		EntityToVotingPower: copyIntMap(entityToVotingPower),
		SlotToOwner:         slotToOwner,
		SlotToAllVotes:      map[int][]actions.Vote{},
		SlotToVotes:         map[int][]actions.Vote{},
		KnowledgeOfBlocks:   knowledge,
		Blocks: map[int]actions.Block{
			baseSlot: {
				Slot:        baseSlot,
				ParentSlot:  -1,
				Proposer:    "",
				OnTime:      true,
				WalletState: genesisWallet,
			},
		},
		EntityOfferKnowledge: map[string][]actions.OfferBribery{},
		TakeBriberies:        map[string][]actions.TakeBribery{},
		PayToAttestStates:    map[int]actions.PayToAttestState{},
	}
}

func entityNames(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func appendVote(votes []actions.Vote, v actions.Vote) []actions.Vote {
	out := make([]actions.Vote, len(votes)+1)
	copy(out, votes)
	out[len(votes)] = v
	return out
}

func appendInt(ints []int, n int) []int {
	out := make([]int, len(ints)+1)
	copy(out, ints)
	out[len(ints)] = n
	return out
}

func appendTakeBribery(list []actions.TakeBribery, t actions.TakeBribery) []actions.TakeBribery {
	out := make([]actions.TakeBribery, len(list)+1)
	copy(out, list)
	out[len(list)] = t
	return out
}

func appendOffer(list []actions.OfferBribery, o actions.OfferBribery) []actions.OfferBribery {
	out := make([]actions.OfferBribery, len(list)+1)
	copy(out, list)
	out[len(list)] = o
	return out
}

// clone returns a shallow copy of e with every top-level map replaced by a
// fresh map pointing at the same (never-mutated-in-place) values. Callers
// populate the new maps via the appendX helpers above, never via append or
// map-index mutation on a slice/map still shared with e.
func (e Engine) clone() Engine {
	n := e
	n.EntityToVotingPower = copyIntMap(e.EntityToVotingPower)

	n.SlotToOwner = make(map[int]string, len(e.SlotToOwner))
	for k, v := range e.SlotToOwner {
		n.SlotToOwner[k] = v
	}

	n.SlotToAllVotes = make(map[int][]actions.Vote, len(e.SlotToAllVotes))
	for k, v := range e.SlotToAllVotes {
		n.SlotToAllVotes[k] = v
	}

	n.SlotToVotes = make(map[int][]actions.Vote, len(e.SlotToVotes))
	for k, v := range e.SlotToVotes {
		n.SlotToVotes[k] = v
	}

	n.KnowledgeOfBlocks = make(map[string]map[int]bool, len(e.KnowledgeOfBlocks))
	for entity, known := range e.KnowledgeOfBlocks {
		m := make(map[int]bool, len(known))
		for s := range known {
			m[s] = true
		}
		n.KnowledgeOfBlocks[entity] = m
	}

	n.Blocks = make(map[int]actions.Block, len(e.Blocks))
	for k, v := range e.Blocks {
		n.Blocks[k] = v
	}

	n.EntityOfferKnowledge = make(map[string][]actions.OfferBribery, len(e.EntityOfferKnowledge))
	for k, v := range e.EntityOfferKnowledge {
		n.EntityOfferKnowledge[k] = v
	}

	n.TakeBriberies = make(map[string][]actions.TakeBribery, len(e.TakeBriberies))
	for k, v := range e.TakeBriberies {
		n.TakeBriberies[k] = v
	}

	n.PayToAttestStates = make(map[int]actions.PayToAttestState, len(e.PayToAttestStates))
	for k, v := range e.PayToAttestStates {
		n.PayToAttestStates[k] = v
	}

	return n
}

// AllVotes returns every vote the engine has ever accepted (pending or
// counted), deduplicated. Strategies use this to tell whether a vote they
// are about to reveal has already become public.
func (e Engine) AllVotes() map[actions.Vote]bool {
	out := map[actions.Vote]bool{}
	for _, votes := range e.SlotToAllVotes {
		for _, v := range votes {
			out[v] = true
		}
	}
	return out
}

// knows reports whether entity's current view includes the block built
// for slot s.
func (e Engine) knows(entity string, s int) bool {
	if s == e.BaseSlot {
		return true
	}
	known := e.KnowledgeOfBlocks[entity]
	return known != nil && known[s]
}

// checkVote classifies a new vote against the votes already on file for
// the same entity and from_slot: duplicate (byte-identical resubmission,
// zero marginal weight), double vote (committee seats overlapping a vote on
// file that it is not identical to, a slashable offense we refuse to
// account weight for),
// or accepted (its full Amount()).
func checkVote(existing []actions.Vote, v actions.Vote) (amount int, duplicate, double bool) {
	for _, e := range existing {
		if e.Entity != v.Entity || e.FromSlot != v.FromSlot {
			continue
		}
		if e == v {
			return 0, true, false
		}
		if e.Overlaps(v) {
			return 0, false, true
		}
	}
	return v.Amount(), false, false
}

// Head runs LMD-GHOST from entity's point of view: for every slot it
// knows about, accumulate the weight of every counted vote targeting it
// (plus a proposer boost for a timely block at the current slot),
// propagate that weight up through parent pointers, then walk root to
// leaf always choosing the strictly heavier child. A tie between two
// children is an invariant violation and panics; no tie-break rule is
// applied.
func (e Engine) Head(entity string) int {
	weight := map[int]int64{}
	for s := range e.Blocks {
		if e.knows(entity, s) && s <= e.Slot.Num {
			weight[s] = 0
		}
	}

	for fromSlot, votes := range e.SlotToVotes {
		if fromSlot > e.Slot.Num {
			continue
		}
		for _, v := range votes {
			if _, ok := weight[v.ToSlot]; ok {
				weight[v.ToSlot] += int64(v.Amount())
			}
		}
	}

	if b, ok := e.Blocks[e.Slot.Num]; ok && b.OnTime && e.knows(entity, e.Slot.Num) {
		weight[e.Slot.Num] += int64(params.ProposerBoost)
	}

	children := map[int][]int{}
	var known []int
	for s := range weight {
		known = append(known, s)
	}
	for _, s := range known {
		if s == e.BaseSlot {
			continue
		}
		p := e.Blocks[s].ParentSlot
		children[p] = append(children[p], s)
	}

	var subtreeWeight func(s int) int64
	memo := map[int]int64{}
	subtreeWeight = func(s int) int64 {
		if w, ok := memo[s]; ok {
			return w
		}
		total := weight[s]
		for _, c := range children[s] {
			total += subtreeWeight(c)
		}
		memo[s] = total
		return total
	}

	head := e.BaseSlot
	for {
		kids := children[head]
		if len(kids) == 0 {
			return head
		}
		sort.Ints(kids)
		best := kids[0]
		bestWeight := subtreeWeight(best)
		for _, c := range kids[1:] {
			w := subtreeWeight(c)
			if w > bestWeight {
				best, bestWeight = c, w
			} else if w == bestWeight {
				violate("engine: fork-choice tie between slots %d and %d at weight %d", best, c, w)
			}
		}
		head = best
	}
}

// SlotProgress advances the clock by one half-phase. Entering phase 0
// (the start of a fresh slot) promotes every vote accumulated for the
// slot that just closed from pending to counted: slot_to_all_votes is
// copied into slot_to_votes so future Head calls see it.
func (e Engine) SlotProgress() Engine {
	n := e.clone()
	n.Slot = e.Slot.Add(1)
	if n.Slot.Phase == 0 {
		for k, v := range n.SlotToAllVotes {
			n.SlotToVotes[k] = v
		}
	}
	return n
}

// AddVotes validates and folds a batch of votes into the engine. A vote
// naming out-of-range committee seats, a head after its own from_slot, or
// a from_slot after the current slot is a protocol violation and panics. A vote that double-votes
// or exactly duplicates one already on file is accepted as a no-op (no
// weight, no panic): strategies are expected to probe this via AllVotes
// before resubmitting, but the engine itself tolerates it rather than
// aborting the whole batch.
func (e Engine) AddVotes(votes []actions.Vote) Engine {
	n := e.clone()
	for _, v := range votes {
		power, ok := n.EntityToVotingPower[v.Entity]
		if !ok {
			violate("engine: vote from unknown entity %q", v.Entity)
		}
		if v.MinIndex < 0 || v.MinIndex > v.MaxIndex || v.MaxIndex >= power {
			violate("engine: vote index range [%d,%d] out of bounds for entity %q (power %d)",
				v.MinIndex, v.MaxIndex, v.Entity, power)
		}
		if v.ToSlot > v.FromSlot || v.FromSlot > n.Slot.Num {
			violate("engine: vote from_slot=%d to_slot=%d invalid at current slot %d",
				v.FromSlot, v.ToSlot, n.Slot.Num)
		}

		_, duplicate, double := checkVote(n.SlotToAllVotes[v.FromSlot], v)
		if duplicate || double {
			continue
		}

		n.SlotToAllVotes[v.FromSlot] = appendVote(n.SlotToAllVotes[v.FromSlot], v)
		if v.FromSlot != n.Slot.Num {
			n.SlotToVotes[v.FromSlot] = appendVote(n.SlotToVotes[v.FromSlot], v)
		}
	}
	return n
}

// AddKnowledge reveals previously withheld slots to the named entities,
// used by a byzantine strategy's withheld_blocks/abort hooks to publish
// blocks it had been sitting on.
func (e Engine) AddKnowledge(entityToSlots map[string][]int) Engine {
	n := e.clone()
	for entity, slots := range entityToSlots {
		known := n.KnowledgeOfBlocks[entity]
		m := make(map[int]bool, len(known)+len(slots))
		for s := range known {
			m[s] = true
		}
		for _, s := range slots {
			m[s] = true
		}
		n.KnowledgeOfBlocks[entity] = m
	}
	return n
}

// AddOfferBribery publishes a set of bribery offers to the named entities'
// knowledge and seeds escrow tracking for every offer not seen before
// (identified by OfferBribery.ID, assigned once by whoever constructed the
// offer). Every attest's target slot must be the base slot or a slot of the
// chain string's schedule; it need not have a block yet.
func (e Engine) AddOfferBribery(entityToOffers map[string][]actions.OfferBribery) Engine {
	n := e.clone()
	for entity, offers := range entityToOffers {
		for _, offer := range offers {
			for _, attest := range offer.Attests {
				if _, ok := n.SlotToOwner[attest.Slot]; !ok && attest.Slot != n.BaseSlot {
					violate("engine: offer bribery references unknown slot %d", attest.Slot)
				}
			}
			n.EntityOfferKnowledge[entity] = appendOffer(n.EntityOfferKnowledge[entity], offer)
			if _, exists := n.PayToAttestStates[offer.ID]; !exists {
				n.PayToAttestStates[offer.ID] = actions.NewPayToAttestState(offer)
			}
		}
	}
	return n
}

// AddTakeBriberies cross-validates and records bribee claims against the
// SingleOfferBribery each TakeBribery references: the claimed vote must
// match the reference's index range and target the reference's from_slot
// and slot exactly, the claiming bribee must be the offer's named bribee,
// and re-running checkVote against every vote already on file for that
// (entity, from_slot) ensures a claim can never smuggle in a double vote
// the caller didn't already cast through AddVotes.
func (e Engine) AddTakeBriberies(takes map[string][]actions.TakeBribery) Engine {
	n := e.clone()
	for bribee, list := range takes {
		for _, t := range list {
			offer, ok := n.PayToAttestStates[t.OfferID]
			if !ok {
				violate("engine: take bribery references unknown offer %d", t.OfferID)
			}
			if offer.Offer.Bribee != t.Vote.Entity {
				violate("engine: take bribery vote entity does not match its offer's bribee")
			}
			if t.Vote.MinIndex != t.Reference.MinIndex || t.Vote.MaxIndex != t.Reference.MaxIndex ||
				t.Vote.FromSlot != t.Reference.FromSlot || t.Vote.ToSlot != t.Reference.Slot {
				violate("engine: take bribery vote does not match its reference single offer")
			}
			if _, _, double := checkVote(n.SlotToAllVotes[t.Vote.FromSlot], t.Vote); double {
				violate("engine: take bribery claims a vote that double-votes against votes already on file")
			}
			n.TakeBriberies[bribee] = appendTakeBribery(n.TakeBriberies[bribee], t)
		}
	}
	return n
}
