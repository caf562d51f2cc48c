// Package game is the strategy-space enumerator and driver: given a fixed
// proposer schedule (chain string) and entity voting powers, it generates
// every (adversary strategy, per-bribee strategy) pairing and plays each one
// to completion through the engine, recording the resulting snapshot and
// event trail for the equilibrium analyzer to consume.
package game

import (
	"fmt"
	"sort"

	"github.com/0xsooki/bribery-zoo/engine"
	"github.com/0xsooki/bribery-zoo/log"
	"github.com/0xsooki/bribery-zoo/plan"
	"github.com/0xsooki/bribery-zoo/strategy"
)

var logger = log.Default().Module("game")

// Game fixes the scenario a whole strategy sweep is played against: the
// proposer schedule, who the honest/adversary entities are, which other
// entities are recruitable bribees, and their voting powers.
type Game struct {
	BaseSlot            int
	ChainString         string
	HonestEntity        string
	AdversaryEntity     string
	BribeeEntities      []string
	EntityToVotingPower map[string]int
	Units               strategy.BribeUnits
}

// AllEntities returns every entity in the game (honest, adversary, every
// bribee), in a stable order.
func (g Game) AllEntities() []string {
	out := []string{g.HonestEntity, g.AdversaryEntity}
	bribees := append([]string(nil), g.BribeeEntities...)
	sort.Strings(bribees)
	return append(out, bribees...)
}

// windowSlots returns every slot this game's chain string covers.
func (g Game) windowSlots() []int {
	out := make([]int, len(g.ChainString))
	for i := range g.ChainString {
		out[i] = g.BaseSlot + 1 + i
	}
	return out
}

// entityOwnedSlots returns the subset of the window owned by entity.
func (g Game) entityOwnedSlots(entity string) []int {
	var out []int
	for i, c := range g.ChainString {
		if string(c) == entity {
			out = append(out, g.BaseSlot+1+i)
		}
	}
	return out
}

// RunResult is everything a single played game produced: the terminal
// engine snapshot, the shared event log, and the strategy tuple that
// produced it. Failed/Err hold an engine invariant violation the driver
// chose to treat as a hard failure point rather than propagate, per
// spec.md §7's "safe default is to treat the point as success=false,
// rewards=0, and flag it."
type RunResult struct {
	Game         Game
	AdvParams    strategy.AdversaryParams
	BribeeParams map[string]strategy.BribeeParams
	Engine       engine.Engine
	Events       []strategy.Entry
	Failed       bool
	Err          error
}

// ProfileKey returns a stable string identifying the strategy tuple
// (adversary params, one bribee param per bribee), usable as a map key
// since the underlying param structs carry pointer fields.
func ProfileKey(adv strategy.AdversaryParams, bribeeParams map[string]strategy.BribeeParams) string {
	entities := make([]string, 0, len(bribeeParams))
	for e := range bribeeParams {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	key := "adv:" + adv.Key()
	for _, e := range entities {
		key += "|" + e + ":" + bribeeParams[e].Key()
	}
	return key
}

// AllAdvStrategies enumerates the adversary's strategy space: every
// combination of an optional voluntary break slot, patience, and an
// optional take-bribery censorship cutoff restricted to adversary-owned
// slots (spec.md §4.4).
func (g Game) AllAdvStrategies() []strategy.AdversaryParams {
	breakOptions := optionalSlotAxis(g.entityOwnedSlots(g.AdversaryEntity), g.windowSlots())
	censorOptions := optionalSlotAxis(g.entityOwnedSlots(g.AdversaryEntity), nil)

	var out []strategy.AdversaryParams
	for _, brk := range breakOptions {
		for _, patient := range []bool{true, false} {
			for _, censor := range censorOptions {
				out = append(out, strategy.AdversaryParams{
					BreakBadSlot:   brk,
					Patient:        patient,
					CensorFromSlot: censor,
				})
			}
		}
	}
	return out
}

// AllBribeeStrategies enumerates one bribee entity's strategy space: every
// combination of an optional censoring-from-slot cutoff (ranging over the
// slots entity owns) and an optional voluntary break slot (ranging over the
// whole window), whether to forward votes as soon as
// able, the 3-level last-minute/only-sending-to-deadline-proposer encoding,
// and whether accepted offers are honoured after a self-abort.
func (g Game) AllBribeeStrategies(entity string) []strategy.BribeeParams {
	window := g.windowSlots()
	censorOptions := optionalSlotAxis(g.entityOwnedSlots(entity), nil)
	breakOptions := optionalSlotAxis(nil, window)

	type timingMode struct {
		lastMinute, onlyDeadline bool
	}
	timingModes := []timingMode{
		{lastMinute: false, onlyDeadline: false},
		{lastMinute: true, onlyDeadline: false},
		{lastMinute: true, onlyDeadline: true},
	}

	var out []strategy.BribeeParams
	for _, censor := range censorOptions {
		for _, brk := range breakOptions {
			for _, sendWhenAble := range []bool{true, false} {
				for _, timing := range timingModes {
					for _, finishRegardless := range []bool{true, false} {
						out = append(out, strategy.BribeeParams{
							CensoringFromSlot:                    censor,
							BreakBadSlot:                         brk,
							SendVotesWhenAble:                    sendWhenAble,
							LastMinute:                           timing.lastMinute,
							OnlySendingToDeadlineProposingEntity: timing.onlyDeadline,
							FinishOffersRegardlessOfAbort:        finishRegardless,
						})
					}
				}
			}
		}
	}
	return out
}

// optionalSlotAxis returns {nil} ∪ {&s : s in preferred} if preferred is
// non-empty, else {nil} ∪ {&s : s in fallback}.
func optionalSlotAxis(preferred, fallback []int) []*int {
	out := []*int{nil}
	slots := preferred
	if len(slots) == 0 {
		slots = fallback
	}
	for _, s := range slots {
		v := s
		out = append(out, &v)
	}
	return out
}

// Play instantiates the three player types against g and runs the
// ten-step-per-slot loop spec.md §4.4 describes, finally sealing a trailing
// honest block with final=true to close out any unsettled escrow. It never
// panics: an *engine.Violation raised mid-game is recovered and reported as
// a Failed RunResult.
func Play(g Game, adv strategy.AdversaryParams, bribeeParams map[string]strategy.BribeeParams) RunResult {
	result := RunResult{Game: g, AdvParams: adv, BribeeParams: bribeeParams}
	func() {
		defer engine.Recover(&result.Err)
		result.Engine, result.Events = play(g, adv, bribeeParams)
	}()
	if result.Err != nil {
		result.Failed = true
		logger.Warn("game failed", "profile", ProfileKey(adv, bribeeParams), "err", result.Err)
	}
	return result
}

func play(g Game, advParams strategy.AdversaryParams, bribeeParams map[string]strategy.BribeeParams) (engine.Engine, []strategy.Entry) {
	events := strategy.NewEventLog()
	all := g.AllEntities()

	e := engine.MakeEngine(g.BaseSlot, g.ChainString, g.EntityToVotingPower)

	honest := strategy.NewHonest(g.HonestEntity, all)

	bribeeSet := make(map[string]bool, len(g.BribeeEntities))
	for _, b := range g.BribeeEntities {
		bribeeSet[b] = true
	}
	adv := strategy.NewAdversary(g.BaseSlot, g.ChainString, g.HonestEntity, g.AdversaryEntity, all, bribeeSet, advParams, events)
	adv.Units = g.Units

	order := make([]string, 0, len(bribeeParams))
	for entity := range bribeeParams {
		order = append(order, entity)
	}
	sort.Strings(order)

	bribees := make(map[string]*strategy.Bribee, len(order))
	for _, entity := range order {
		bribees[entity] = strategy.NewBribee(g.BaseSlot, g.ChainString, g.HonestEntity, entity, g.AdversaryEntity, all, bribeeParams[entity], events)
	}

	adjustAll := func(e engine.Engine) engine.Engine {
		e = adv.AdjustStrategy(e)
		for _, entity := range order {
			e = bribees[entity].AdjustStrategy(e)
		}
		return e
	}

	for i, c := range g.ChainString {
		owner := string(c)

		// 1. build
		switch {
		case owner == g.HonestEntity:
			e = honest.Build(e)
		case owner == g.AdversaryEntity:
			e = adv.Build(e)
		case bribees[owner] != nil:
			e = bribees[owner].Build(e)
		default:
			panic(fmt.Sprintf("game: chain string slot %d owned by unknown entity %q", i, owner))
		}

		// 2. adjust x byzantine
		e = adjustAll(e)

		// 3. offer
		e = adv.OfferBribe(e)

		// 4. slot_progress
		e = e.SlotProgress()

		// 5. vote x all
		e = honest.Vote(e)
		e = adv.Vote(e)
		for _, entity := range order {
			e = bribees[entity].Vote(e)
		}

		// 6. take_bribe x bribees
		for _, entity := range order {
			e = bribees[entity].TakeBribe(e)
		}

		// 7. send_others_votes
		e = adv.SendOthersVotes(e)
		for _, entity := range order {
			e = bribees[entity].SendOthersVotes(e)
		}

		// 8. withheld_blocks
		e = adv.WithheldBlocks(e)
		for _, entity := range order {
			e = bribees[entity].WithheldBlocks(e)
		}

		// 9. adjust x byzantine
		e = adjustAll(e)

		// 10. slot_progress
		e = e.SlotProgress()
	}

	e = honest.BuildFinal(e)

	return e, events.Entries()
}

// PlanFor is a convenience wrapper returning the forking plan g's chain
// string and honest entity imply, for callers (tests, cmd/briberyzoo) that
// want to inspect it without constructing a player.
func (g Game) PlanFor() plan.Plan {
	return plan.New(g.BaseSlot, g.ChainString, g.HonestEntity)
}
