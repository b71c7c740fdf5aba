package trie

import (
	"errors"

	"github.com/ethvm/ethvm/core/types"
	"github.com/ethvm/ethvm/crypto"
)

var (
	// ErrKeyOrder is returned when keys are inserted out of ascending order.
	ErrKeyOrder = errors.New("stack trie: keys must be inserted in ascending order")

	// ErrFinalized is returned when Update is called after Hash.
	ErrFinalized = errors.New("stack trie: already finalized")
)

// EmptyRoot is the root hash of a trie with no entries: keccak256(rlp("")).
var EmptyRoot = types.EmptyRootHash

// nodeKind distinguishes the states a stack trie node moves through.
type nodeKind byte

const (
	kindEmpty  nodeKind = iota // unused slot
	kindLeaf                   // key suffix + value
	kindExt                    // shared prefix + single child
	kindBranch                 // 16 children + optional value
)

// stNode is a node in the working stack. Nodes transition from empty to
// leaf, and split into branches (optionally below an extension) as keys
// with diverging nibbles arrive.
type stNode struct {
	kind     nodeKind
	key      []byte // nibbles: leaf suffix or extension prefix
	val      []byte
	children [16]*stNode
}

// StackTrie computes the Merkle-Patricia root of key-value pairs inserted
// in strictly ascending key order, the access pattern of transaction and
// receipt tries. Nodes are built once and never rebalanced; the order
// restriction keeps insertion append-only.
type StackTrie struct {
	root      *stNode
	lastKey   []byte
	entries   int
	finalized bool
}

// NewStackTrie creates an empty stack trie.
func NewStackTrie() *StackTrie {
	return &StackTrie{root: &stNode{kind: kindEmpty}}
}

// Update inserts a key-value pair. Keys must arrive in strictly ascending
// lexicographic order on the raw bytes; empty values are skipped.
func (st *StackTrie) Update(key, value []byte) error {
	if st.finalized {
		return ErrFinalized
	}
	if len(value) == 0 {
		return nil
	}
	if st.lastKey != nil && !bytesLess(st.lastKey, key) {
		return ErrKeyOrder
	}
	st.lastKey = append(st.lastKey[:0], key...)

	// Work on nibbles without the terminator; leafness is tracked by kind.
	nibbles := keybytesToHex(key)
	st.insert(st.root, nibbles[:len(nibbles)-1], value)
	st.entries++
	return nil
}

// Len returns the number of inserted key-value pairs.
func (st *StackTrie) Len() int { return st.entries }

// Hash finalizes the trie and returns its root hash.
func (st *StackTrie) Hash() types.Hash {
	st.finalized = true
	if st.entries == 0 {
		return EmptyRoot
	}
	return crypto.Keccak256Hash(st.encodeNode(st.root))
}

func (st *StackTrie) insert(n *stNode, key, value []byte) {
	switch n.kind {
	case kindEmpty:
		n.kind = kindLeaf
		n.key = copyBytes(key)
		n.val = copyBytes(value)

	case kindLeaf:
		match := prefixLen(n.key, key)
		if match == len(n.key) && match == len(key) {
			n.val = copyBytes(value)
			return
		}
		oldKey, oldVal := n.key, n.val
		branch := &stNode{kind: kindBranch}
		if match == len(oldKey) {
			branch.val = oldVal
		} else {
			branch.children[oldKey[match]] = &stNode{
				kind: kindLeaf,
				key:  copyBytes(oldKey[match+1:]),
				val:  oldVal,
			}
		}
		if match == len(key) {
			branch.val = copyBytes(value)
		} else {
			branch.children[key[match]] = &stNode{
				kind: kindLeaf,
				key:  copyBytes(key[match+1:]),
				val:  copyBytes(value),
			}
		}
		if match > 0 {
			n.kind = kindExt
			n.key = copyBytes(oldKey[:match])
			n.val = nil
			n.children = [16]*stNode{}
			n.children[0] = branch
		} else {
			*n = *branch
		}

	case kindExt:
		match := prefixLen(n.key, key)
		if match == len(n.key) {
			st.insert(n.children[0], key[match:], value)
			return
		}
		oldPrefix, child := n.key, n.children[0]
		branch := &stNode{kind: kindBranch}
		if rest := len(oldPrefix) - match - 1; rest > 0 {
			ext := &stNode{kind: kindExt, key: copyBytes(oldPrefix[match+1:])}
			ext.children[0] = child
			branch.children[oldPrefix[match]] = ext
		} else {
			branch.children[oldPrefix[match]] = child
		}
		if match == len(key) {
			branch.val = copyBytes(value)
		} else {
			branch.children[key[match]] = &stNode{
				kind: kindLeaf,
				key:  copyBytes(key[match+1:]),
				val:  copyBytes(value),
			}
		}
		if match > 0 {
			n.key = copyBytes(oldPrefix[:match])
			n.children = [16]*stNode{}
			n.children[0] = branch
		} else {
			*n = *branch
		}

	case kindBranch:
		if len(key) == 0 {
			n.val = copyBytes(value)
			return
		}
		idx := key[0]
		if n.children[idx] == nil {
			n.children[idx] = &stNode{kind: kindEmpty}
		}
		st.insert(n.children[idx], key[1:], value)
	}
}

// encodeNode RLP-encodes a node, hashing child encodings of 32 bytes or
// more into hash references per the trie node composition rules.
func (st *StackTrie) encodeNode(n *stNode) []byte {
	switch n.kind {
	case kindEmpty:
		return []byte{0x80}

	case kindLeaf:
		// [compact(key + terminator), value]
		leafKey := make([]byte, len(n.key)+1)
		copy(leafKey, n.key)
		leafKey[len(leafKey)-1] = terminatorNibble
		payload := append(rlpString(hexToCompact(leafKey)), rlpString(n.val)...)
		return rlpList(payload)

	case kindExt:
		// [compact(prefix), child]
		payload := rlpString(hexToCompact(n.key))
		payload = append(payload, st.childRef(n.children[0])...)
		return rlpList(payload)

	case kindBranch:
		var payload []byte
		for i := 0; i < 16; i++ {
			if n.children[i] == nil {
				payload = append(payload, 0x80)
				continue
			}
			payload = append(payload, st.childRef(n.children[i])...)
		}
		if n.val != nil {
			payload = append(payload, rlpString(n.val)...)
		} else {
			payload = append(payload, 0x80)
		}
		return rlpList(payload)
	}
	return []byte{0x80}
}

// childRef returns the in-parent representation of a child: the raw
// encoding when it fits inline (<32 bytes), otherwise its hash.
func (st *StackTrie) childRef(child *stNode) []byte {
	enc := st.encodeNode(child)
	if len(enc) < 32 {
		return enc
	}
	return rlpString(crypto.Keccak256(enc))
}

func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// rlpString encodes b as an RLP string.
func rlpString(b []byte) []byte {
	switch {
	case len(b) == 0:
		return []byte{0x80}
	case len(b) == 1 && b[0] < 0x80:
		return []byte{b[0]}
	case len(b) <= 55:
		out := make([]byte, 1+len(b))
		out[0] = 0x80 + byte(len(b))
		copy(out[1:], b)
		return out
	default:
		size := uintBigEndian(uint64(len(b)))
		out := make([]byte, 1+len(size)+len(b))
		out[0] = 0xb7 + byte(len(size))
		copy(out[1:], size)
		copy(out[1+len(size):], b)
		return out
	}
}

// rlpList wraps already-encoded payload bytes in an RLP list header.
func rlpList(payload []byte) []byte {
	if len(payload) <= 55 {
		out := make([]byte, 1+len(payload))
		out[0] = 0xc0 + byte(len(payload))
		copy(out[1:], payload)
		return out
	}
	size := uintBigEndian(uint64(len(payload)))
	out := make([]byte, 1+len(size)+len(payload))
	out[0] = 0xf7 + byte(len(size))
	copy(out[1:], size)
	copy(out[1+len(size):], payload)
	return out
}

// uintBigEndian encodes u big-endian with no leading zero bytes.
func uintBigEndian(u uint64) []byte {
	var buf []byte
	for shift := 56; shift >= 0; shift -= 8 {
		b := byte(u >> shift)
		if b == 0 && buf == nil {
			continue
		}
		buf = append(buf, b)
	}
	if buf == nil {
		buf = []byte{0}
	}
	return buf
}
