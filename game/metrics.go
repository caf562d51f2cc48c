package game

import (
	"github.com/0xsooki/bribery-zoo/actions"
)

// finalSlot is the slot the game's trailing honest close-out block is
// sealed at: one past the window play() advances the clock over.
func (g Game) finalSlot() int {
	return g.BaseSlot + len(g.ChainString) + 1
}

// canonicalSlots returns the ancestor chain of the honest entity's final
// fork-choice head, the canonical chain spec.md §4.5/GLOSSARY defines.
func (rr RunResult) canonicalSlots() map[int]bool {
	head := rr.Engine.Head(rr.Game.HonestEntity)
	out := map[int]bool{}
	for s := head; ; {
		out[s] = true
		if s == rr.Engine.BaseSlot {
			break
		}
		s = rr.Engine.Blocks[s].ParentSlot
	}
	return out
}

// Success reports whether the adversary's target fork became canonical:
// some honest-owned slot in the window is not on the canonical chain
// (spec.md §4.5, GLOSSARY "Success").
func (rr RunResult) Success() bool {
	if rr.Failed {
		return false
	}
	canonical := rr.canonicalSlots()
	for i := range rr.Game.ChainString {
		slot := rr.Game.BaseSlot + 1 + i
		owner := rr.Engine.SlotToOwner[slot]
		isHonestOwner := owner == rr.Game.HonestEntity
		if isHonestOwner && !canonical[slot] {
			return true
		}
	}
	return false
}

// CanonicalBlocksOwnedBy counts how many canonical-chain slots player
// proposed.
func (rr RunResult) CanonicalBlocksOwnedBy(player string) int64 {
	if rr.Failed {
		return 0
	}
	canonical := rr.canonicalSlots()
	var n int64
	for slot := range canonical {
		if blk, ok := rr.Engine.Blocks[slot]; ok && blk.Proposer == player {
			n++
		}
	}
	return n
}

// NetChannel returns player's net credits-minus-debits across every
// payment tagged channel in the final ledger.
func (rr RunResult) NetChannel(channel, player string) int64 {
	if rr.Failed {
		return 0
	}
	blk, ok := rr.Engine.Blocks[rr.Game.finalSlot()]
	if !ok {
		return 0
	}
	var net int64
	for _, p := range blk.WalletState.Ledger {
		if p.Channel != channel {
			continue
		}
		if p.To == player {
			net += p.Amount
		}
		if p.From == player {
			net -= p.Amount
		}
	}
	return net
}

// PlayerMetrics returns the six symbolic channel values spec.md §4.5
// precompiles into the analyzer's tensor, for the given player entity:
// on-chain wallet balance, success (adversary only), canonical blocks
// owned, and net base_reward/deadline_reward/deadline_payback units.
func (rr RunResult) PlayerMetrics(player string) [6]int64 {
	var success int64
	if rr.Success() && player == rr.Game.AdversaryEntity {
		success = 1
	}
	return [6]int64{
		rr.NetChannel(actions.ChannelWallet, player),
		success,
		rr.CanonicalBlocksOwnedBy(player),
		rr.NetChannel(actions.ChannelBaseReward, player),
		rr.NetChannel(actions.ChannelDeadlineReward, player),
		rr.NetChannel(actions.ChannelDeadlinePayback, player),
	}
}
