// Package state defines the transactional account-store contract the block
// processor drives, and an in-memory journaled implementation of it.
package state

import (
	"errors"

	"github.com/ethvm/ethvm/core/types"
)

var (
	// ErrNoCheckpoint is returned by Commit or Revert with no open checkpoint.
	ErrNoCheckpoint = errors.New("state: no open checkpoint")

	// ErrUnknownRoot is returned by SetRoot for a root that was never
	// committed and flushed by this store.
	ErrUnknownRoot = errors.New("state: unknown state root")
)

// StateDB is the account store as seen by the block processor: a flat
// address-to-account map with checkpoint/commit/revert transactionality, a
// root commitment over the whole account state, and a write-back cache.
//
// Checkpoints nest LIFO. The block processor opens exactly one checkpoint
// per invocation and resolves it exactly once, committing or reverting.
// Implementations are not safe for concurrent block processing; callers
// serialize invocations per store instance.
type StateDB interface {
	// Checkpoint opens a save point to which Revert can roll back.
	Checkpoint()

	// Commit folds every mutation since the newest checkpoint into its
	// parent scope, making them permanent for this store.
	Commit() error

	// Revert undoes every mutation since the newest checkpoint.
	Revert() error

	// GetAccount returns a copy of the account at addr, or a fresh empty
	// account if none exists.
	GetAccount(addr types.Address) (*types.Account, error)

	// PutAccount writes the account at addr.
	PutAccount(addr types.Address, account *types.Account) error

	// Root returns the commitment over the current account state,
	// including uncommitted mutations.
	Root() (types.Hash, error)

	// SetRoot moves the store to a previously flushed state root.
	SetRoot(root types.Hash) error

	// Flush writes dirty cache entries through to the backing store and
	// records the resulting root so SetRoot can return to it.
	Flush() error

	// ClearCache drops clean entries from the read cache.
	ClearCache()
}
