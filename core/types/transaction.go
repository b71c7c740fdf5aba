package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// Transaction carries the fields the block processor and its external
// executor consume. Only the declared gas limit is interpreted here; the
// remaining fields pass through to the executor opaquely.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64   // declared gas limit
	To       *Address `rlp:"nil"` // nil means contract creation
	Value    *big.Int
	Data     []byte
}

// GasLimit returns the transaction's declared gas limit.
func (tx *Transaction) GasLimit() uint64 { return tx.Gas }

// Hash returns the keccak256 hash of the RLP-encoded transaction.
func (tx *Transaction) Hash() Hash {
	enc, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return Hash{}
	}
	d := sha3.NewLegacyKeccak256()
	d.Write(enc)
	return BytesToHash(d.Sum(nil))
}
