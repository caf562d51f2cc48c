// Package cache implements the content-addressed result cache spec.md
// §4.6/§6 describes: an opaque key→bytes store for precompiled tensors and
// per-weight equilibrium tables, backed by the same embedded key-value
// store (github.com/syndtr/goleveldb) the teacher's chain database uses,
// keyed by a blake2b-256 digest of a canonical RLP encoding of the
// scenario parameters — the same hash family and wire encoding the
// teacher's trie/state layer reaches for (golang.org/x/crypto/blake2b,
// github.com/ethereum/go-ethereum/rlp).
//
// The store itself never interprets the bytes it holds; callers (analyzer
// precompile results, equilibrium sweep tables) own the serialisation.
package cache

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned by Get when key has never been written.
var ErrNotFound = errors.New("cache: key not found")

// Store is a directory-backed, content-addressed byte store.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if absent) a LevelDB-backed store rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the bytes stored under key, or ErrNotFound on a miss.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get: %w", err)
	}
	return v, nil
}

// Put writes value under key, overwriting any prior entry. goleveldb gives
// no cross-writer coherence guarantee beyond its own write atomicity,
// matching spec.md §5's "no coherence guarantees across concurrent writers."
func (s *Store) Put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Has reports whether key has an entry, without fetching its value.
func (s *Store) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("cache: has: %w", err)
	}
	return ok, nil
}

// votingPowerEntry is the RLP-friendly (sorted, slice-shaped) form of a
// voting-power map: RLP has no native map type, so every key derivation
// below sorts the map into this shape first for a canonical encoding.
type votingPowerEntry struct {
	Entity string
	Power  uint64
}

func sortedPowers(votingPowers map[string]int) []votingPowerEntry {
	out := make([]votingPowerEntry, 0, len(votingPowers))
	for e, p := range votingPowers {
		out = append(out, votingPowerEntry{Entity: e, Power: uint64(p)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}

// PrecompileKey derives the content-addressed key for a scenario's
// precompiled tensor bundle: blake2b-256 of the canonical RLP encoding of
// (chain_string, per-entity voting counts), per spec.md §6's
// "{chain_string}-{entity=voting_power,...}" directory naming.
func PrecompileKey(chainString string, votingPowers map[string]int) ([]byte, error) {
	payload := struct {
		Kind   string
		Chain  string
		Powers []votingPowerEntry
	}{Kind: "precompile", Chain: chainString, Powers: sortedPowers(votingPowers)}
	return digestKey(payload)
}

// WeightKey derives the content-addressed key for a (block_reward,
// success_reward) weight sweep's equilibrium table, scoped to the same
// scenario PrecompileKey is scoped to.
func WeightKey(chainString string, votingPowers map[string]int, blockReward, successReward int64) ([]byte, error) {
	payload := struct {
		Kind          string
		Chain         string
		Powers        []votingPowerEntry
		BlockReward   uint64
		SuccessReward uint64
	}{
		Kind: "weights", Chain: chainString, Powers: sortedPowers(votingPowers),
		BlockReward:   zigzagEncode(blockReward),
		SuccessReward: zigzagEncode(successReward),
	}
	return digestKey(payload)
}

func digestKey(payload any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("cache: encode key payload: %w", err)
	}
	sum := blake2b.Sum256(data)
	return sum[:], nil
}

// zigzagEncode maps a signed int64 onto an unsigned one losslessly: RLP's
// integer encoding is unsigned-only, and the economic sweep parameters a
// WeightKey is scoped to can be negative in principle.
func zigzagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// zigzagDecode reverses zigzagEncode.
func zigzagDecode(n uint64) int64 {
	return int64(n>>1) ^ -int64(n&1)
}
