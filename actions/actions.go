// Package actions defines the immutable value types byzantine and honest
// players exchange with the consensus engine: votes, bribery offers and
// claims, escrow payment state, wallet ledgers and proposed blocks.
//
// Every type here is a plain value. None of them carry behaviour that
// mutates shared state; "changing" one always produces a new value, the
// same discipline the engine package applies to the chain snapshot itself.
package actions

// Vote is a single entity's attestation: a claim, backed by [MinIndex,
// MaxIndex] committee seats, that the canonical head as of FromSlot is
// ToSlot.
type Vote struct {
	Entity   string
	FromSlot int
	MinIndex int
	MaxIndex int
	ToSlot   int
}

// Amount returns the committee weight this vote carries.
func (v Vote) Amount() int {
	return v.MaxIndex - v.MinIndex + 1
}

// Overlaps reports whether v and other claim any of the same committee
// seats for the same FromSlot and entity. Two votes from the same entity
// and slot that overlap but disagree on ToSlot are a slashable double vote.
func (v Vote) Overlaps(other Vote) bool {
	return v.Entity == other.Entity && v.FromSlot == other.FromSlot &&
		v.MinIndex <= other.MaxIndex && other.MinIndex <= v.MaxIndex
}

// SingleOfferBribery is one attestation slot the briber wants bought: the
// committee range [MinIndex,MaxIndex] voting from FromSlot for the head
// Slot, with the claim included no later than Deadline.
type SingleOfferBribery struct {
	MinIndex int
	MaxIndex int
	FromSlot int
	Slot     int
	Deadline int
}

// OfferBribery bundles every SingleOfferBribery a briber extends to a
// single bribee entity as part of one attack, along with the payment
// schedule: BaseReward is paid unconditionally once every attest is
// achieved, DeadlineReward/DeadlinePayback are paid only if the resulting
// chain state matches one of IncludedSlots (and none of ExcludedSlots).
type OfferBribery struct {
	ID              int
	Attests         []SingleOfferBribery
	BaseReward      int64
	DeadlineReward  int64
	DeadlinePayback int64
	Bribee          string
	Briber          string
	BribedProposer  string
	IncludedSlots   map[int]bool
	ExcludedSlots   map[int]bool
}

// TakeBribery is a bribee's claim against one SingleOfferBribery within an
// OfferBribery, identified by Index into that offer's Attests slice, paired
// with the Vote it is actually casting to satisfy it.
type TakeBribery struct {
	OfferID   int
	Reference SingleOfferBribery
	Vote      Vote
	Index     int
}

// PayToAttestState tracks escrow progress for one outstanding OfferBribery:
// which of its attests have been Achieved, whether every achieved attest
// landed BeforeDeadline, whether the bribe has already been Paid, and any
// ExtraFunds returned to the briber once a chain's final block is known.
type PayToAttestState struct {
	Offer          OfferBribery
	Achieved       []bool
	BeforeDeadline bool
	Paid           bool
	ExtraFunds     int64
}

// NewPayToAttestState seeds escrow tracking for a freshly received offer:
// nothing achieved yet, deadline not yet missed.
func NewPayToAttestState(offer OfferBribery) PayToAttestState {
	return PayToAttestState{
		Offer:          offer,
		Achieved:       make([]bool, len(offer.Attests)),
		BeforeDeadline: true,
	}
}

// AllAchieved reports whether every attest in the offer has been satisfied.
func (s PayToAttestState) AllAchieved() bool {
	for _, ok := range s.Achieved {
		if !ok {
			return false
		}
	}
	return len(s.Achieved) > 0
}

// Achieve returns a new state with Achieved[index] marked true. beforeDeadline
// narrows s.BeforeDeadline: once any achieved attest lands after its
// deadline, the whole offer loses eligibility for the deadline bonus.
func (s PayToAttestState) Achieve(index int, beforeDeadline bool) PayToAttestState {
	achieved := make([]bool, len(s.Achieved))
	copy(achieved, s.Achieved)
	achieved[index] = true
	return PayToAttestState{
		Offer:          s.Offer,
		Achieved:       achieved,
		BeforeDeadline: s.BeforeDeadline && beforeDeadline,
		Paid:           s.Paid,
		ExtraFunds:     s.ExtraFunds,
	}
}

// Pay returns a new state marked Paid, recording any funds left over after
// the conditional deadline bonus was resolved (the escrow balance the
// briber reclaims, or forfeits to a final-block burn).
func (s PayToAttestState) Pay(extraFunds int64) PayToAttestState {
	return PayToAttestState{
		Offer:          s.Offer,
		Achieved:       s.Achieved,
		BeforeDeadline: s.BeforeDeadline,
		Paid:           true,
		ExtraFunds:     extraFunds,
	}
}

// Payment is one entry in a WalletState's symbolic ledger. Channel tags
// which reward bucket the payment belongs to (one of "wallet", "base_reward",
// "deadline_reward", "deadline_payback"), letting the analyzer reconstruct
// per-channel totals without replaying the game.
type Payment struct {
	From    string
	To      string
	Amount  int64
	Channel string
	Comment string
}

// Reward channel tags used by Payment.Channel.
const (
	ChannelWallet          = "wallet"
	ChannelBaseReward      = "base_reward"
	ChannelDeadlineReward  = "deadline_reward"
	ChannelDeadlinePayback = "deadline_payback"
)

// WalletState is the append-only symbolic ledger of every payment made so
// far, plus the running balance per address it implies.
type WalletState struct {
	Balances map[string]int64
	Ledger   []Payment
}

// NewWalletState returns an empty wallet with the given entities seeded at
// a zero balance.
func NewWalletState(entities []string) WalletState {
	balances := make(map[string]int64, len(entities))
	for _, e := range entities {
		balances[e] = 0
	}
	return WalletState{Balances: balances}
}

// Pay returns a new WalletState with payment applied: From debited, To
// credited, and the payment appended to the ledger. A zero-amount payment
// is still recorded, since the ledger is also the analyzer's channel trace.
func (w WalletState) Pay(p Payment) WalletState {
	balances := make(map[string]int64, len(w.Balances))
	for k, v := range w.Balances {
		balances[k] = v
	}
	balances[p.From] -= p.Amount
	balances[p.To] += p.Amount

	ledger := make([]Payment, len(w.Ledger)+1)
	copy(ledger, w.Ledger)
	ledger[len(w.Ledger)] = p

	return WalletState{Balances: balances, Ledger: ledger}
}

// Block is one slot's proposed block: who proposed it, what it builds on,
// whether it was seen by the slot's own proposer in time to count as
// on-time for proposer-boost purposes, the wallet state it produces, the
// escrow states it carries forward, and the votes it includes.
type Block struct {
	Slot          int
	ParentSlot    int
	Proposer      string
	OnTime        bool
	WalletState   WalletState
	PayToAttests  map[int]PayToAttestState
	Votes         []Vote
}
