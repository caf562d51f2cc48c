// Package ledger supplements actions.Payment/WalletState with a wide signed
// integer type used wherever the equilibrium analyzer promotes a per-unit
// economic rate (base_reward_unit, deadline_reward_unit, ...) across a whole
// parameter sweep: a committee-wide index count multiplied by a weight can
// overflow int64 once the sweep spans enough strategy-profile cells, the
// same overflow risk the teacher's own EVM word type exists to absorb.
//
// Amount is a thin wrapper over *uint256.Int interpreted as a two's
// complement signed 256-bit integer, the same convention go-ethereum's own
// SDIV/SMOD opcodes use over the identical type: there is no separate signed
// word type in the EVM, just a sign convention over the unsigned one.
package ledger

import "github.com/holiman/uint256"

// Amount is a signed, wide integer: the analyzer's weighted-sum stage
// promotes through Amount before truncating back to int64 for the
// reward tensor and Nash-mask comparisons, which stay int64-native.
type Amount struct {
	v uint256.Int
}

// Zero is the additive identity.
func Zero() Amount { return Amount{} }

// FromInt64 lifts a native signed integer into Amount.
func FromInt64(n int64) Amount {
	var a Amount
	if n < 0 {
		a.v.SetUint64(uint64(-n))
		a.v.Neg(&a.v)
	} else {
		a.v.SetUint64(uint64(n))
	}
	return a
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	var z Amount
	z.v.Add(&a.v, &b.v)
	return z
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) Amount {
	var z Amount
	z.v.Sub(&a.v, &b.v)
	return z
}

// MulInt64 returns a multiplied by the given per-unit rate.
func (a Amount) MulInt64(rate int64) Amount {
	var z Amount
	r := FromInt64(rate)
	z.v.Mul(&a.v, &r.v)
	return z
}

// Sign reports -1, 0 or 1 following the two's complement convention.
func (a Amount) Sign() int { return a.v.Sign() }

// IsZero reports whether a is exactly zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Int64 truncates a back down to a native signed integer. Callers that know
// their economic parameters keep the sweep inside int64 range (true for
// every scenario this simulator's grids are sized for) can round-trip
// losslessly; overflow beyond int64 silently wraps, matching the teacher's
// own uint256-to-native truncation behaviour (e.g. (*uint256.Int).Uint64()).
func (a Amount) Int64() int64 {
	if a.Sign() < 0 {
		var neg uint256.Int
		neg.Neg(&a.v)
		return -int64(neg.Uint64())
	}
	return int64(a.v.Uint64())
}

// String renders the signed decimal form.
func (a Amount) String() string {
	if a.Sign() < 0 {
		var neg uint256.Int
		neg.Neg(&a.v)
		return "-" + neg.Dec()
	}
	return a.v.Dec()
}
