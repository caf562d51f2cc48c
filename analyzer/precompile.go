package analyzer

import "github.com/0xsooki/bribery-zoo/game"

// Channel indices into the precompiled tensor's leading axis (spec.md §4.5).
const (
	ChannelWallet          = 0
	ChannelSuccess         = 1
	ChannelBlocks          = 2
	ChannelBaseReward      = 3
	ChannelDeadlineReward  = 4
	ChannelDeadlinePayback = 5
	NumChannels            = 6
)

// Precompile allocates a [6, N, |S1|, ..., |SN|] tensor from rt and fills
// every cell from the already-played RunResult at that strategy profile,
// without re-running any game.
func Precompile(rt *game.RunTable) *Tensor {
	players := rt.Players()
	axisShape := rt.AxisShape()

	shape := make([]int, 0, 2+len(axisShape))
	shape = append(shape, NumChannels, len(players))
	shape = append(shape, axisShape...)
	t := NewTensor(shape)

	forEachIndex(axisShape, func(profile []int) {
		rr := rt.At(profile...)
		for p, player := range players {
			metrics := rr.PlayerMetrics(player)
			for ch := 0; ch < NumChannels; ch++ {
				idx := append([]int{ch, p}, profile...)
				t.Set(metrics[ch], idx...)
			}
		}
	})

	return t
}
