package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethvm/ethvm/core/types"
	"github.com/ethvm/ethvm/crypto"
	"github.com/ethvm/ethvm/trie"
)

// cacheEntry is an account in the write-back cache. Dirty entries have not
// been flushed to the backing store yet.
type cacheEntry struct {
	account *types.Account
	dirty   bool
}

func (e *cacheEntry) copy() *cacheEntry {
	return &cacheEntry{account: e.account.Copy(), dirty: e.dirty}
}

// journalEntry records the cache state an account write replaced, so Revert
// can restore it. prev is nil when the address was not cached before.
type journalEntry struct {
	addr types.Address
	prev *cacheEntry
}

// MemoryStateDB is an in-memory StateDB. Accounts live in a write-back
// cache over a flat backing map of keccak(address) -> RLP(account), the
// secure-trie layout. Mutations are journaled; checkpoints nest LIFO.
// Every flushed root is retained so SetRoot can seed the store back to it.
type MemoryStateDB struct {
	backing     map[types.Hash][]byte
	cache       map[types.Address]*cacheEntry
	journal     []journalEntry
	checkpoints []int
	snapshots   map[types.Hash]map[types.Hash][]byte
}

// NewMemoryStateDB creates an empty in-memory state database.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		backing:   make(map[types.Hash][]byte),
		cache:     make(map[types.Address]*cacheEntry),
		snapshots: make(map[types.Hash]map[types.Hash][]byte),
	}
}

// Checkpoint opens a save point covering all subsequent mutations.
func (s *MemoryStateDB) Checkpoint() {
	s.checkpoints = append(s.checkpoints, len(s.journal))
}

// Commit folds the newest checkpoint's mutations into the enclosing scope.
func (s *MemoryStateDB) Commit() error {
	if len(s.checkpoints) == 0 {
		return ErrNoCheckpoint
	}
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	if len(s.checkpoints) == 0 {
		s.journal = nil
	}
	return nil
}

// Revert undoes every mutation since the newest checkpoint.
func (s *MemoryStateDB) Revert() error {
	if len(s.checkpoints) == 0 {
		return ErrNoCheckpoint
	}
	mark := s.checkpoints[len(s.checkpoints)-1]
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	for i := len(s.journal) - 1; i >= mark; i-- {
		entry := s.journal[i]
		if entry.prev == nil {
			delete(s.cache, entry.addr)
		} else {
			s.cache[entry.addr] = entry.prev
		}
	}
	s.journal = s.journal[:mark]
	return nil
}

// GetAccount returns a copy of the account at addr. Missing accounts read
// as fresh empty accounts; they are materialized only by PutAccount.
func (s *MemoryStateDB) GetAccount(addr types.Address) (*types.Account, error) {
	if entry, ok := s.cache[addr]; ok {
		return entry.account.Copy(), nil
	}
	enc, ok := s.backing[hashAddr(addr)]
	if !ok {
		return types.NewAccount(), nil
	}
	account, err := decodeAccount(enc)
	if err != nil {
		return nil, fmt.Errorf("state: account %s: %w", addr, err)
	}
	// Populate the read cache; clean entries carry no journal record.
	s.cache[addr] = &cacheEntry{account: account}
	return account.Copy(), nil
}

// PutAccount writes the account at addr into the cache, journaling the
// replaced entry.
func (s *MemoryStateDB) PutAccount(addr types.Address, account *types.Account) error {
	var prev *cacheEntry
	if entry, ok := s.cache[addr]; ok {
		prev = entry.copy()
	}
	s.journal = append(s.journal, journalEntry{addr: addr, prev: prev})
	s.cache[addr] = &cacheEntry{account: account.Copy(), dirty: true}
	return nil
}

// Root computes the state commitment over the backing store overlaid with
// the cache, so uncommitted mutations are visible.
func (s *MemoryStateDB) Root() (types.Hash, error) {
	merged := make(map[types.Hash][]byte, len(s.backing)+len(s.cache))
	for k, v := range s.backing {
		merged[k] = v
	}
	for addr, entry := range s.cache {
		enc, err := rlp.EncodeToBytes(entry.account)
		if err != nil {
			return types.Hash{}, fmt.Errorf("state: encode account %s: %w", addr, err)
		}
		merged[hashAddr(addr)] = enc
	}

	keys := make([]types.Hash, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i][:]) < string(keys[j][:])
	})

	st := trie.NewStackTrie()
	for _, k := range keys {
		if err := st.Update(k.Bytes(), merged[k]); err != nil {
			return types.Hash{}, err
		}
	}
	return st.Hash(), nil
}

// SetRoot moves the store to a previously flushed root, dropping the cache,
// journal and any open checkpoints. The empty root resets the store.
func (s *MemoryStateDB) SetRoot(root types.Hash) error {
	switch {
	case root == trie.EmptyRoot || root.IsZero():
		s.backing = make(map[types.Hash][]byte)
	default:
		snap, ok := s.snapshots[root]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRoot, root)
		}
		s.backing = copyBacking(snap)
	}
	s.cache = make(map[types.Address]*cacheEntry)
	s.journal = nil
	s.checkpoints = nil
	return nil
}

// Flush writes dirty cache entries through to the backing store and records
// the resulting root as a snapshot target for SetRoot.
func (s *MemoryStateDB) Flush() error {
	for addr, entry := range s.cache {
		if !entry.dirty {
			continue
		}
		enc, err := rlp.EncodeToBytes(entry.account)
		if err != nil {
			return fmt.Errorf("state: encode account %s: %w", addr, err)
		}
		s.backing[hashAddr(addr)] = enc
		entry.dirty = false
	}
	root, err := s.Root()
	if err != nil {
		return err
	}
	s.snapshots[root] = copyBacking(s.backing)
	return nil
}

// ClearCache drops clean entries from the read cache. Dirty entries are
// kept until the next Flush.
func (s *MemoryStateDB) ClearCache() {
	for addr, entry := range s.cache {
		if !entry.dirty {
			delete(s.cache, addr)
		}
	}
}

func hashAddr(addr types.Address) types.Hash {
	return crypto.Keccak256Hash(addr.Bytes())
}

func decodeAccount(enc []byte) (*types.Account, error) {
	account := new(types.Account)
	if err := rlp.DecodeBytes(enc, account); err != nil {
		return nil, err
	}
	return account, nil
}

func copyBacking(src map[types.Hash][]byte) map[types.Hash][]byte {
	dst := make(map[types.Hash][]byte, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
