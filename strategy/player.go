// Package strategy implements the honest, adversary and bribee finite-state
// agents that drive a game: each issues engine actions (build, offer, vote,
// claim, withhold, abort) from a shared multi-slot plan (package plan) and
// slot-local observations of the engine snapshot it is handed.
//
// None of the three player types mutates the engine directly; every hook
// takes an engine.Engine by value and returns the new snapshot the engine's
// own transitions produced, the same discipline the engine package itself
// follows. Player-local bookkeeping (accepted offers, withheld blocks, the
// abort flag) lives on the player struct, never on the engine.
package strategy

import (
	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/engine"
)

// Player is the two hooks every strategy implements: propose a block when
// it is this entity's turn, and cast an attestation every slot.
type Player interface {
	Build(e engine.Engine) engine.Engine
	Vote(e engine.Engine) engine.Engine
}

// Byzantine is the extended hook set an adversary or bribee implements on
// top of Player: rebroadcasting claimed votes, revealing withheld blocks,
// and reconsidering the attack's viability every slot.
type Byzantine interface {
	Player
	SendOthersVotes(e engine.Engine) engine.Engine
	WithheldBlocks(e engine.Engine) engine.Engine
	AdjustStrategy(e engine.Engine) engine.Engine
}

// Adv is a Byzantine player that additionally extends bribery offers.
type Adv interface {
	Byzantine
	OfferBribe(e engine.Engine) engine.Engine
}

// BribeeRole is a Byzantine player that additionally settles claims against
// offers it accepted.
type BribeeRole interface {
	Byzantine
	TakeBribe(e engine.Engine) engine.Engine
}

// allEntitiesSet turns a slice of entity tags into the set form
// engine.BuildBlock/AddKnowledge/AddTakeBriberies expect.
func allEntitiesSet(entities []string) map[string]bool {
	out := make(map[string]bool, len(entities))
	for _, e := range entities {
		out[e] = true
	}
	return out
}

// windowEntities returns the subset of chainString's owners between the
// current slot and lastE, exclusive of lastE itself: the audience a
// withheld block or secret vote is still allowed to reach without leaking
// the plan to the honest entity.
func windowEntities(chainString string, baseSlot, slotNum, lastE int) map[string]bool {
	start := slotNum - baseSlot - 1
	end := lastE - baseSlot - 1
	if start < 0 {
		start = 0
	}
	if end > len(chainString) {
		end = len(chainString)
	}
	out := map[string]bool{}
	for i := start; i < end; i++ {
		out[string(chainString[i])] = true
	}
	return out
}

// broadcastKnowledge fans a single slot list out to every entity's
// knowledge map, the shape engine.AddKnowledge expects.
func broadcastKnowledge(entities []string, slots []int) map[string][]int {
	out := make(map[string][]int, len(entities))
	for _, e := range entities {
		out[e] = slots
	}
	return out
}

// broadcastOffers fans a single offer list out to every entity.
func broadcastOffers(entities []string, offers []actions.OfferBribery) map[string][]actions.OfferBribery {
	out := make(map[string][]actions.OfferBribery, len(entities))
	for _, e := range entities {
		out[e] = offers
	}
	return out
}

// broadcastTakes fans a single take-bribery list out to every entity.
func broadcastTakes(entities []string, takes []actions.TakeBribery) map[string][]actions.TakeBribery {
	out := make(map[string][]actions.TakeBribery, len(entities))
	for _, e := range entities {
		out[e] = takes
	}
	return out
}
