package cache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/0xsooki/bribery-zoo/analyzer"
	"github.com/ethereum/go-ethereum/rlp"
)

// tensorWire is the RLP wire form of an analyzer.Tensor: shape stays a
// plain []uint64, and the int64 cell data is packed into one big-endian
// byte blob rather than encoded as a signed-integer list, since RLP's
// integer codec is unsigned-only and tensor cells (net reward channels)
// can be negative.
type tensorWire struct {
	Shape []uint64
	Cells []byte
}

func encodeTensor(t *analyzer.Tensor) tensorWire {
	shape := make([]uint64, len(t.Shape))
	for i, n := range t.Shape {
		shape[i] = uint64(n)
	}
	cells := make([]byte, 8*len(t.Data))
	for i, v := range t.Data {
		binary.BigEndian.PutUint64(cells[i*8:], uint64(v))
	}
	return tensorWire{Shape: shape, Cells: cells}
}

func decodeTensor(w tensorWire) (*analyzer.Tensor, error) {
	if len(w.Cells)%8 != 0 {
		return nil, fmt.Errorf("cache: tensor cell blob length %d is not a multiple of 8", len(w.Cells))
	}
	shape := make([]int, len(w.Shape))
	total := 1
	for i, n := range w.Shape {
		shape[i] = int(n)
		total *= int(n)
	}
	if total != len(w.Cells)/8 {
		return nil, fmt.Errorf("cache: tensor shape %v holds %d cells, blob carries %d", shape, total, len(w.Cells)/8)
	}
	t := analyzer.NewTensor(shape)
	for i := range t.Data {
		t.Data[i] = int64(binary.BigEndian.Uint64(w.Cells[i*8:]))
	}
	return t, nil
}

// Bundle is the precompiled-tensor artifact spec.md §6 describes caching:
// the dense channel tensor plus the player labelling of its player axis.
// The mapping between strategy-axis indices and strategy parameters is not
// stored; it is rebuilt from the game's strategy enumeration.
type Bundle struct {
	Pre     *analyzer.Tensor
	Players []string
}

type bundleWire struct {
	Pre     tensorWire
	Players []string
}

// PutBundle writes a precompiled Bundle under the scenario's PrecompileKey.
func (s *Store) PutBundle(chainString string, votingPowers map[string]int, b Bundle) error {
	key, err := PrecompileKey(chainString, votingPowers)
	if err != nil {
		return err
	}
	wire := bundleWire{Pre: encodeTensor(b.Pre), Players: b.Players}
	data, err := rlp.EncodeToBytes(wire)
	if err != nil {
		return fmt.Errorf("cache: encode bundle: %w", err)
	}
	return s.Put(key, data)
}

// GetBundle reads back a Bundle previously written by PutBundle. ok is
// false on a cache miss.
func (s *Store) GetBundle(chainString string, votingPowers map[string]int) (b Bundle, ok bool, err error) {
	key, err := PrecompileKey(chainString, votingPowers)
	if err != nil {
		return Bundle{}, false, err
	}
	data, err := s.Get(key)
	if err != nil {
		if err == ErrNotFound {
			return Bundle{}, false, nil
		}
		return Bundle{}, false, err
	}
	var wire bundleWire
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return Bundle{}, false, fmt.Errorf("cache: decode bundle: %w", err)
	}
	pre, err := decodeTensor(wire.Pre)
	if err != nil {
		return Bundle{}, false, err
	}
	return Bundle{Pre: pre, Players: wire.Players}, true, nil
}

// EquilibriumEntry is one surviving profile from analyzer.BestEquilibrium,
// labelled with each player's reward at that profile for display without
// re-deriving it from the reward tensor.
type EquilibriumEntry struct {
	Profile []int
	Rewards []int64
}

// WeightTable is the cached result of one (block_reward, success_reward)
// sweep point: the contracted reward tensor's equilibrium set, spec.md
// §4.5/§6's per-weight cache entry.
type WeightTable struct {
	Weights    analyzer.Weights
	MaxRatio   float64
	Equilibria []EquilibriumEntry
}

type weightTableWire struct {
	BlockReward         uint64
	SuccessReward       uint64
	BaseRewardUnit      uint64
	DeadlineRewardUnit  uint64
	DeadlinePaybackUnit uint64
	MaxRatioBits        uint64
	Profiles            [][]uint64
	Rewards             [][]byte
}

// PutWeightTable writes a WeightTable under the scenario+weight's WeightKey.
func (s *Store) PutWeightTable(chainString string, votingPowers map[string]int, wt WeightTable) error {
	key, err := WeightKey(chainString, votingPowers, wt.Weights.BlockReward, wt.Weights.SuccessReward)
	if err != nil {
		return err
	}

	wire := weightTableWire{
		BlockReward:         zigzagEncode(wt.Weights.BlockReward),
		SuccessReward:       zigzagEncode(wt.Weights.SuccessReward),
		BaseRewardUnit:      zigzagEncode(wt.Weights.BaseRewardUnit),
		DeadlineRewardUnit:  zigzagEncode(wt.Weights.DeadlineRewardUnit),
		DeadlinePaybackUnit: zigzagEncode(wt.Weights.DeadlinePaybackUnit),
		MaxRatioBits:        math.Float64bits(wt.MaxRatio),
	}
	for _, e := range wt.Equilibria {
		profile := make([]uint64, len(e.Profile))
		for i, v := range e.Profile {
			profile[i] = uint64(v)
		}
		wire.Profiles = append(wire.Profiles, profile)

		rewardBytes := make([]byte, 8*len(e.Rewards))
		for i, v := range e.Rewards {
			binary.BigEndian.PutUint64(rewardBytes[i*8:], uint64(v))
		}
		wire.Rewards = append(wire.Rewards, rewardBytes)
	}

	data, err := rlp.EncodeToBytes(wire)
	if err != nil {
		return fmt.Errorf("cache: encode weight table: %w", err)
	}
	return s.Put(key, data)
}

// GetWeightTable reads back a WeightTable keyed by (chainString,
// votingPowers, blockReward, successReward). ok is false on a cache miss.
func (s *Store) GetWeightTable(chainString string, votingPowers map[string]int, blockReward, successReward int64) (wt WeightTable, ok bool, err error) {
	key, err := WeightKey(chainString, votingPowers, blockReward, successReward)
	if err != nil {
		return WeightTable{}, false, err
	}
	data, err := s.Get(key)
	if err != nil {
		if err == ErrNotFound {
			return WeightTable{}, false, nil
		}
		return WeightTable{}, false, err
	}

	var wire weightTableWire
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return WeightTable{}, false, fmt.Errorf("cache: decode weight table: %w", err)
	}

	wt = WeightTable{
		Weights: analyzer.Weights{
			BlockReward:         zigzagDecode(wire.BlockReward),
			SuccessReward:       zigzagDecode(wire.SuccessReward),
			BaseRewardUnit:      zigzagDecode(wire.BaseRewardUnit),
			DeadlineRewardUnit:  zigzagDecode(wire.DeadlineRewardUnit),
			DeadlinePaybackUnit: zigzagDecode(wire.DeadlinePaybackUnit),
		},
		MaxRatio: math.Float64frombits(wire.MaxRatioBits),
	}
	for i, profile := range wire.Profiles {
		idx := make([]int, len(profile))
		for j, v := range profile {
			idx[j] = int(v)
		}
		rewardBytes := wire.Rewards[i]
		rewards := make([]int64, len(rewardBytes)/8)
		for j := range rewards {
			rewards[j] = int64(binary.BigEndian.Uint64(rewardBytes[j*8:]))
		}
		wt.Equilibria = append(wt.Equilibria, EquilibriumEntry{Profile: idx, Rewards: rewards})
	}
	return wt, true, nil
}
