package game

import (
	"fmt"

	"github.com/0xsooki/bribery-zoo/strategy"
)

// RunTable is the Cartesian product of one adversary-strategy axis and one
// strategy axis per bribee entity, with every cell already played. Players
// is [adversary, bribee0, bribee1, ...] in the same order as BribeeOrder;
// axis sizes are len(AdvStrategies), len(BribeeStrategies[BribeeOrder[0]]),
// and so on, matching the tensor shape spec.md §4.5 describes.
type RunTable struct {
	Game             Game
	AdvStrategies    []strategy.AdversaryParams
	BribeeOrder      []string
	BribeeStrategies map[string][]strategy.BribeeParams
	Results          []RunResult
}

// Players returns the tensor's player axis: the adversary entity followed
// by every bribee entity, in BribeeOrder.
func (rt *RunTable) Players() []string {
	return append([]string{rt.Game.AdversaryEntity}, rt.BribeeOrder...)
}

// AxisShape returns the strategy-profile grid's shape: one dimension per
// player, sized by that player's strategy count.
func (rt *RunTable) AxisShape() []int {
	shape := make([]int, 0, 1+len(rt.BribeeOrder))
	shape = append(shape, len(rt.AdvStrategies))
	for _, entity := range rt.BribeeOrder {
		shape = append(shape, len(rt.BribeeStrategies[entity]))
	}
	return shape
}

// flatIndex converts a per-axis index tuple into an offset into Results,
// row-major (the adversary axis varies slowest).
func (rt *RunTable) flatIndex(idx []int) int {
	shape := rt.AxisShape()
	if len(idx) != len(shape) {
		panic(fmt.Sprintf("game: index tuple length %d does not match axis count %d", len(idx), len(shape)))
	}
	offset := 0
	for axis, i := range idx {
		if i < 0 || i >= shape[axis] {
			panic(fmt.Sprintf("game: index %d out of range [0,%d) on axis %d", i, shape[axis], axis))
		}
		offset = offset*shape[axis] + i
	}
	return offset
}

// At returns the played result at the given per-axis strategy index tuple.
func (rt *RunTable) At(idx ...int) RunResult {
	return rt.Results[rt.flatIndex(idx)]
}

// CompileRunTable enumerates g's full strategy space (the adversary's
// strategies crossed with every bribee's independent strategy axis) and
// plays every resulting tuple, per spec.md §4.4. K, the product of every
// axis size, must fit comfortably in memory per spec.md §5's resource
// policy; CompileRunTable rejects configurations where K overflows a
// reasonable int bound rather than silently truncate the grid.
func CompileRunTable(g Game) (*RunTable, error) {
	bribeeOrder := append([]string(nil), g.BribeeEntities...)

	bribeeStrategies := make(map[string][]strategy.BribeeParams, len(bribeeOrder))
	for _, entity := range bribeeOrder {
		bribeeStrategies[entity] = g.AllBribeeStrategies(entity)
	}

	rt := &RunTable{
		Game:             g,
		AdvStrategies:    g.AllAdvStrategies(),
		BribeeOrder:      bribeeOrder,
		BribeeStrategies: bribeeStrategies,
	}

	total := 1
	for _, n := range rt.AxisShape() {
		if n == 0 {
			return nil, fmt.Errorf("game: empty strategy axis in grid shape %v", rt.AxisShape())
		}
		const maxReasonableGrid = 1 << 24
		if total > maxReasonableGrid/n {
			return nil, fmt.Errorf("game: strategy-profile grid %v overflows the memory budget", rt.AxisShape())
		}
		total *= n
	}

	logger.Info("compiling run table", "chain", g.ChainString, "grid", rt.AxisShape(), "cells", total)

	rt.Results = make([]RunResult, total)
	var walk func(axis int, advIdx int, bribeeParams map[string]strategy.BribeeParams, bribeeIdx []int)
	walk = func(axis int, advIdx int, bribeeParams map[string]strategy.BribeeParams, bribeeIdx []int) {
		if axis == len(bribeeOrder) {
			idx := append([]int{advIdx}, bribeeIdx...)
			snapshot := make(map[string]strategy.BribeeParams, len(bribeeParams))
			for k, v := range bribeeParams {
				snapshot[k] = v
			}
			rt.Results[rt.flatIndex(idx)] = Play(g, rt.AdvStrategies[advIdx], snapshot)
			return
		}
		entity := bribeeOrder[axis]
		for i, params := range bribeeStrategies[entity] {
			bribeeParams[entity] = params
			walk(axis+1, advIdx, bribeeParams, append(bribeeIdx, i))
		}
	}

	for advIdx := range rt.AdvStrategies {
		walk(0, advIdx, map[string]strategy.BribeeParams{}, nil)
	}

	return rt, nil
}
