package strategy

import (
	"github.com/0xsooki/bribery-zoo/actions"
	"github.com/0xsooki/bribery-zoo/engine"
)

// Honest always builds and votes for its own fork-choice head, broadcasting
// every block to every entity in the game: it has nothing to hide and
// nothing to gain from withholding information.
type Honest struct {
	Entity      string
	AllEntities []string
}

// NewHonest returns the honest player for entity, aware of every other
// entity in the game.
func NewHonest(entity string, allEntities []string) *Honest {
	return &Honest{Entity: entity, AllEntities: allEntities}
}

// Build proposes a block at the current slot on top of the entity's own
// fork-choice head.
func (h *Honest) Build(e engine.Engine) engine.Engine {
	head := e.Head(h.Entity)
	return e.BuildBlock(e.Slot.Num, head, allEntitiesSet(h.AllEntities), h.Entity, false, nil, nil)
}

// BuildFinal proposes the trailing block that closes the game: any escrow
// left unsettled by this point is burned (engine.BuildBlock's final=true
// path), per spec.md's described close-out step.
func (h *Honest) BuildFinal(e engine.Engine) engine.Engine {
	head := e.Head(h.Entity)
	return e.BuildBlock(e.Slot.Num, head, allEntitiesSet(h.AllEntities), h.Entity, true, nil, nil)
}

// Vote casts the entity's full voting power for its own fork-choice head.
func (h *Honest) Vote(e engine.Engine) engine.Engine {
	head := e.Head(h.Entity)
	power := e.EntityToVotingPower[h.Entity]
	return e.AddVotes([]actions.Vote{{
		Entity: h.Entity, FromSlot: e.Slot.Num, MinIndex: 0, MaxIndex: power - 1, ToSlot: head,
	}})
}
