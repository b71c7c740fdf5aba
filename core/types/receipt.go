package types

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Receipt status values. The status bit is the inverse of the executor's
// exception flag: 1 records that no exception occurred.
const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// ErrNilReceipt is returned when encoding a nil receipt.
var ErrNilReceipt = errors.New("receipt: nil receipt")

// Receipt summarizes the execution of one transaction within a block.
type Receipt struct {
	// Consensus fields, in trie-encoding order.
	Status            uint64
	CumulativeGasUsed *big.Int // running block total as of this transaction
	Bloom             Bloom    // aggregate block bloom as of this transaction
	Logs              []*Log

	// Derived fields, filled in by DeriveReceiptContext.
	GasUsed          uint64
	BlockHash        Hash
	BlockNumber      *big.Int
	TransactionIndex uint
}

// NewReceipt creates a receipt with the given status and cumulative gas.
// The cumulative gas value is copied.
func NewReceipt(status uint64, cumulativeGas *big.Int) *Receipt {
	r := &Receipt{Status: status, CumulativeGasUsed: new(big.Int)}
	if cumulativeGas != nil {
		r.CumulativeGasUsed.Set(cumulativeGas)
	}
	return r
}

// Succeeded reports whether the transaction completed without an exception.
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// receiptRLP is the consensus wire form:
// [status, cumulativeGasUsed, bloom, logs]. RLP renders the cumulative gas
// as a minimal big-endian byte sequence.
type receiptRLP struct {
	Status            uint64
	CumulativeGasUsed *big.Int
	Bloom             Bloom
	Logs              []logRLP
}

// EncodeRLP returns the canonical RLP encoding of the receipt's consensus
// fields. This is the form committed into the receipt trie.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	if r == nil {
		return nil, ErrNilReceipt
	}
	cumGas := r.CumulativeGasUsed
	if cumGas == nil {
		cumGas = new(big.Int)
	}
	return rlp.EncodeToBytes(&receiptRLP{
		Status:            r.Status,
		CumulativeGasUsed: cumGas,
		Bloom:             r.Bloom,
		Logs:              toLogRLP(r.Logs),
	})
}

// DecodeReceiptRLP decodes a receipt from its consensus encoding.
func DecodeReceiptRLP(data []byte) (*Receipt, error) {
	var dec receiptRLP
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, err
	}
	return &Receipt{
		Status:            dec.Status,
		CumulativeGasUsed: dec.CumulativeGasUsed,
		Bloom:             dec.Bloom,
		Logs:              fromLogRLP(dec.Logs),
	}, nil
}

// DeriveReceiptContext populates the derived fields of a block's receipts:
// block hash and number, per-receipt transaction index, per-transaction gas
// used and global log indices. Nil entries (aborted transactions) are
// skipped. The receipts must be in transaction order.
func DeriveReceiptContext(receipts []*Receipt, blockHash Hash, blockNumber *big.Int) {
	var (
		logIndex uint
		prevGas  = new(big.Int)
	)
	for i, receipt := range receipts {
		if receipt == nil {
			continue
		}
		receipt.BlockHash = blockHash
		receipt.BlockNumber = new(big.Int)
		if blockNumber != nil {
			receipt.BlockNumber.Set(blockNumber)
		}
		receipt.TransactionIndex = uint(i)

		if receipt.CumulativeGasUsed != nil {
			gas := new(big.Int).Sub(receipt.CumulativeGasUsed, prevGas)
			receipt.GasUsed = gas.Uint64()
			prevGas.Set(receipt.CumulativeGasUsed)
		}

		for _, log := range receipt.Logs {
			log.BlockHash = blockHash
			if blockNumber != nil {
				log.BlockNumber = blockNumber.Uint64()
			}
			log.TxIndex = uint(i)
			log.Index = logIndex
			logIndex++
		}
	}
}
