package trie

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethvm/ethvm/core/types"
)

var (
	// ErrReceiptOrder is returned when receipts are inserted with
	// non-sequential indices.
	ErrReceiptOrder = errors.New("receipt trie: index must equal entry count")

	// ErrEmptyValue is returned when an empty encoded receipt is inserted.
	ErrEmptyValue = errors.New("receipt trie: empty value")
)

type receiptEntry struct {
	key []byte // RLP-encoded receipt index
	val []byte // encoded receipt
}

// ReceiptTrie is the insert-only trie a block's receipts are committed to.
// Entries are keyed by the RLP encoding of their zero-based position among
// processed receipts (not the transaction's position in the block; the two
// coincide as long as any abort halts the transaction loop).
type ReceiptTrie struct {
	entries []receiptEntry
}

// NewReceiptTrie creates an empty receipt trie.
func NewReceiptTrie() *ReceiptTrie {
	return &ReceiptTrie{}
}

// Put inserts the encoded receipt at the given index. Indices must be
// inserted sequentially from zero.
func (rt *ReceiptTrie) Put(index uint64, encoded []byte) error {
	if index != uint64(len(rt.entries)) {
		return fmt.Errorf("%w: index %d, entries %d", ErrReceiptOrder, index, len(rt.entries))
	}
	if len(encoded) == 0 {
		return ErrEmptyValue
	}
	key, err := rlp.EncodeToBytes(index)
	if err != nil {
		return fmt.Errorf("receipt trie: encode index: %w", err)
	}
	val := make([]byte, len(encoded))
	copy(val, encoded)
	rt.entries = append(rt.entries, receiptEntry{key: key, val: val})
	return nil
}

// Len returns the number of committed receipts.
func (rt *ReceiptTrie) Len() int { return len(rt.entries) }

// Root computes the Merkle-Patricia root over the committed receipts. The
// buffered entries are replayed into a StackTrie in lexicographic key order,
// since RLP index keys are not byte-ordered by index (RLP(0) = 0x80 sorts
// after RLP(1..127)). An empty trie commits to the canonical empty root.
func (rt *ReceiptTrie) Root() (types.Hash, error) {
	sorted := make([]receiptEntry, len(rt.entries))
	copy(sorted, rt.entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytesLess(sorted[i].key, sorted[j].key)
	})

	st := NewStackTrie()
	for _, e := range sorted {
		if err := st.Update(e.key, e.val); err != nil {
			return types.Hash{}, err
		}
	}
	return st.Hash(), nil
}
