package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Header represents a block header. The state root, receipt root, bloom and
// gas-used fields are commitments over the block's execution; in generate
// mode the block processor writes them, in validation mode it checks them.
type Header struct {
	ParentHash  Hash
	UncleHash   Hash
	Coinbase    Address
	Root        Hash // state trie root after this block
	TxHash      Hash
	ReceiptHash Hash // receipt trie root
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
}

// Hash returns the keccak256 hash of the RLP-encoded header.
func (h *Header) Hash() Hash {
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		return Hash{}
	}
	d := sha3.NewLegacyKeccak256()
	d.Write(enc)
	return BytesToHash(d.Sum(nil))
}

// CopyHeader returns a deep copy of the header.
func CopyHeader(h *Header) *Header {
	if h == nil {
		return nil
	}
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}
