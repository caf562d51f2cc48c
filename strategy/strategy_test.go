package strategy

import (
	"testing"

	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/engine"
)

func threeEntityEngine() engine.Engine {
	return engine.MakeEngine(0, "AHA", map[string]int{"H": 100, "A": 50, "B": 50})
}

func TestHonest_BuildAndVoteFollowOwnHead(t *testing.T) {
	e := threeEntityEngine()
	h := NewHonest("H", []string{"H", "A", "B"})

	e = e.SlotProgress()
	e = h.Build(e)
	if _, ok := e.Blocks[1]; !ok {
		t.Fatal("expected honest block at slot 1")
	}

	e = h.Vote(e)
	votes := e.SlotToAllVotes[1]
	if len(votes) != 1 || votes[0].Entity != "H" || votes[0].ToSlot != 1 {
		t.Fatalf("unexpected honest vote: %+v", votes)
	}
}

func TestAdversary_WithholdsUntilHonestBoundary(t *testing.T) {
	e := threeEntityEngine()
	events := NewEventLog()
	adv := NewAdversary(0, "AHA", "H", "A", []string{"H", "A", "B"}, map[string]bool{"B": true}, AdversaryParams{}, events)

	e = e.SlotProgress()
	e = adv.Build(e)

	if e.KnowledgeOfBlocks["H"][1] {
		t.Fatal("expected the honest entity to not yet know of the withheld adversary block")
	}
	if len(adv.WithheldSlots) != 1 || adv.WithheldSlots[0] != 1 {
		t.Fatalf("expected slot 1 recorded as withheld, got %+v", adv.WithheldSlots)
	}
}

func TestAdversary_RevealsAtLastH(t *testing.T) {
	e := threeEntityEngine()
	events := NewEventLog()
	adv := NewAdversary(0, "AHA", "H", "A", []string{"H", "A", "B"}, map[string]bool{"B": true}, AdversaryParams{}, events)

	e = e.SlotProgress()
	e = adv.Build(e)
	for e.Slot.Num < adv.Plan.LastH {
		e = e.SlotProgress()
	}
	e = adv.WithheldBlocks(e)

	if !e.KnowledgeOfBlocks["H"][1] {
		t.Fatal("expected the withheld block to be revealed at the honest boundary")
	}
	if len(adv.WithheldSlots) != 0 {
		t.Fatalf("expected withheld slots cleared after reveal, got %+v", adv.WithheldSlots)
	}
}

func TestAdversary_OfferBribeReachesBribee(t *testing.T) {
	e := threeEntityEngine()
	events := NewEventLog()
	adv := NewAdversary(0, "AHA", "H", "A", []string{"H", "A", "B"}, map[string]bool{"B": true}, AdversaryParams{}, events)

	e = e.SlotProgress()
	e = adv.OfferBribe(e)

	offers := e.EntityOfferKnowledge["B"]
	if len(offers) != 1 {
		t.Fatalf("expected one offer delivered to B, got %d", len(offers))
	}
	if offers[0].Bribee != "B" || offers[0].Briber != "A" {
		t.Fatalf("unexpected offer parties: %+v", offers[0])
	}
}

func TestBribee_AcceptsOfferAndVotesPlanBranch(t *testing.T) {
	e := threeEntityEngine()
	events := NewEventLog()
	adv := NewAdversary(0, "AHA", "H", "A", []string{"H", "A", "B"}, map[string]bool{"B": true}, AdversaryParams{}, events)
	bribee := NewBribee(0, "AHA", "H", "B", "A", []string{"H", "A", "B"}, BribeeParams{}, events)

	e = e.SlotProgress()
	e = adv.OfferBribe(e)
	e = bribee.Vote(e)

	if len(bribee.AcceptedOffers) != 1 {
		t.Fatalf("expected the bribee to accept the offer, got %d accepted", len(bribee.AcceptedOffers))
	}
	votes := e.SlotToAllVotes[1]
	if len(votes) != 1 || votes[0].ToSlot != bribee.Plan.PlanCorrectVotes[1] {
		t.Fatalf("expected the bribee to vote the plan branch, got %+v", votes)
	}
}

func TestBribee_AdjustStrategyAbortsOnAdversaryDeviation(t *testing.T) {
	e := threeEntityEngine()
	events := NewEventLog()
	bribee := NewBribee(0, "AHA", "H", "B", "A", []string{"H", "A", "B"}, BribeeParams{}, events)

	e = e.SlotProgress()
	e = e.BuildBlock(1, 0, map[string]bool{"H": true, "A": true, "B": true}, "A", false, nil, nil)
	// The adversary's vote targets slot 0 instead of the plan's branch (slot 1):
	// a visible deviation the bribee must detect as the adversary giving up.
	e = e.AddVotes([]actions.Vote{{Entity: "A", FromSlot: 1, MinIndex: 0, MaxIndex: 49, ToSlot: 0}})

	e = bribee.AdjustStrategy(e)
	if !bribee.Aborted {
		t.Fatal("expected the bribee to abort once the adversary's vote deviated from the plan")
	}
	if len(events.Entries()) == 0 {
		t.Fatal("expected the abort to be recorded in the event log")
	}
}
