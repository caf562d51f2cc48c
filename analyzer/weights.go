package analyzer

import "github.com/0xsooki/bribery-zoo/ledger"

// Weights is the economic parameter quintuple spec.md §4.5 sweeps over:
// the per-channel rate ApplyWeights scales channels 1-5 by (channel 0,
// the on-chain wallet balance, is already real-valued and always weighted
// by the constant 1).
type Weights struct {
	BlockReward         int64
	SuccessReward       int64
	BaseRewardUnit      int64
	DeadlineRewardUnit  int64
	DeadlinePaybackUnit int64
}

func (w Weights) rate(channel int) int64 {
	switch channel {
	case ChannelWallet:
		return 1
	case ChannelSuccess:
		return w.SuccessReward
	case ChannelBlocks:
		return w.BlockReward
	case ChannelBaseReward:
		return w.BaseRewardUnit
	case ChannelDeadlineReward:
		return w.DeadlineRewardUnit
	case ChannelDeadlinePayback:
		return w.DeadlinePaybackUnit
	default:
		panic("analyzer: unknown channel")
	}
}

// ApplyWeights contracts the precompiled tensor's channel axis under w,
// yielding the [N, |S1|, ..., |SN|] reward tensor spec.md §4.5 describes.
// Each channel's contribution is promoted through ledger.Amount before
// truncating back to int64, since a committee-wide index count (channels
// 3-5) multiplied by an economic rate can exceed int64 well before the
// sweep's grid is exhausted.
func ApplyWeights(pre *Tensor, w Weights) *Tensor {
	rewardShape := pre.Shape[1:]
	reward := NewTensor(rewardShape)

	forEachIndex(rewardShape, func(idx []int) {
		sum := ledger.Zero()
		for ch := 0; ch < NumChannels; ch++ {
			cellIdx := append([]int{ch}, idx...)
			sum = sum.Add(ledger.FromInt64(pre.At(cellIdx...)).MulInt64(w.rate(ch)))
		}
		reward.Set(sum.Int64(), idx...)
	})

	return reward
}
