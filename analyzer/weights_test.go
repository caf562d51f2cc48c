package analyzer

import "testing"

func TestApplyWeightsContractsTheChannelAxis(t *testing.T) {
	pre := NewTensor([]int{NumChannels, 1})
	pre.Set(100, ChannelWallet, 0)
	pre.Set(1, ChannelSuccess, 0)
	pre.Set(2, ChannelBlocks, 0)
	pre.Set(3, ChannelBaseReward, 0)
	pre.Set(4, ChannelDeadlineReward, 0)
	pre.Set(5, ChannelDeadlinePayback, 0)

	w := Weights{
		BlockReward:         10,
		SuccessReward:       1000,
		BaseRewardUnit:      2,
		DeadlineRewardUnit:  3,
		DeadlinePaybackUnit: 4,
	}
	reward := ApplyWeights(pre, w)

	want := int64(100*1 + 1*1000 + 2*10 + 3*2 + 4*3 + 5*4)
	if got := reward.At(0); got != want {
		t.Fatalf("ApplyWeights cell = %d, want %d", got, want)
	}
}

func TestApplyWeightsZeroRateZeroesChannel(t *testing.T) {
	pre := NewTensor([]int{NumChannels, 1})
	pre.Set(1000000, ChannelBaseReward, 0)
	reward := ApplyWeights(pre, Weights{})
	if got := reward.At(0); got != 0 {
		t.Fatalf("expected zero-weighted channel to contribute 0, got %d", got)
	}
}
