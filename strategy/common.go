package strategy

import (
	"fmt"

	"github.com/0xsooki/bribery-zoo/engine"
	"github.com/0xsooki/bribery-zoo/plan"
)

// byzantine holds the bookkeeping Adversary and Bribee share: the plan they
// committed to, the entities they may still reveal blocks to, and whether
// they have self-aborted.
type byzantine struct {
	BaseSlot     int
	ChainString  string
	HonestEntity string
	Entity       string
	AllEntities  []string
	Plan         plan.Plan
	Events       *EventLog

	Aborted       bool
	WithheldSlots []int
}

// structuralAnomaly reports whether the on-chain state now falsifies the
// plan this player committed to: either the honest entity learned of a
// byzantine block during the secret window, or some already-built block's
// parent does not match what the plan said it should be.
func (b *byzantine) structuralAnomaly(e engine.Engine) bool {
	if e.Slot.Num < b.Plan.LastH {
		for slot := b.BaseSlot + 1; slot < b.Plan.LastH; slot++ {
			if e.SlotToOwner[slot] != b.HonestEntity && e.KnowledgeOfBlocks[b.HonestEntity][slot] {
				return true
			}
		}
	}

	for slot := b.BaseSlot + 1; slot <= e.Slot.Num; slot++ {
		var correct int
		switch {
		case b.Plan.Included[slot]:
			correct = b.Plan.PlanCorrectVotes[slot-1]
		case b.Plan.Excluded[slot]:
			correct = b.Plan.BadVotes[slot-1]
		default:
			panic(fmt.Sprintf("strategy: slot %d is neither included nor excluded by the plan", slot))
		}
		blk, ok := e.Blocks[slot]
		if !ok || blk.ParentSlot != correct {
			return true
		}
	}
	return false
}

// shareKnowledge reveals every slot withheld so far to every entity this
// player is willing to talk to, and clears the withheld list.
func (b *byzantine) shareKnowledge(e engine.Engine) engine.Engine {
	if len(b.WithheldSlots) == 0 {
		return e
	}
	e = e.AddKnowledge(broadcastKnowledge(b.AllEntities, b.WithheldSlots))
	b.WithheldSlots = nil
	return e
}

// abort flips the player into aborted mode, revealing everything withheld
// so far and recording the reason in the shared event log.
func (b *byzantine) abort(e engine.Engine, reason string) engine.Engine {
	b.Aborted = true
	e = b.shareKnowledge(e)
	b.Events.Append(e.Slot, "%s aborted: %s", b.Entity, reason)
	return e
}
