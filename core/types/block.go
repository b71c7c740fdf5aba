package types

import "math/big"

// Block represents a block: header, ordered transactions and ommer (uncle)
// headers. The transaction and uncle lists are immutable inputs; Header()
// returns the live header because the block processor writes commitments
// into it when generating the state root.
type Block struct {
	header       *Header
	transactions []*Transaction
	uncles       []*Header
}

// NewBlock creates a block from a header, transactions and uncle headers.
// The transaction and uncle slices are copied; the header is referenced
// directly so that generate-mode processing can stamp it.
func NewBlock(header *Header, txs []*Transaction, uncles []*Header) *Block {
	b := &Block{header: header}
	if len(txs) > 0 {
		b.transactions = make([]*Transaction, len(txs))
		copy(b.transactions, txs)
	}
	if len(uncles) > 0 {
		b.uncles = make([]*Header, len(uncles))
		copy(b.uncles, uncles)
	}
	return b
}

// Header returns the block header. The processor mutates it in generate
// mode; callers that need an immutable view should CopyHeader it.
func (b *Block) Header() *Header { return b.header }

// Transactions returns the block's ordered transaction list.
func (b *Block) Transactions() []*Transaction { return b.transactions }

// Uncles returns the block's ommer headers.
func (b *Block) Uncles() []*Header { return b.uncles }

// Number returns the block number, or zero if the header carries none.
func (b *Block) Number() *big.Int {
	if b.header.Number == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.header.Number)
}

// GasLimit returns the block's declared gas limit.
func (b *Block) GasLimit() uint64 { return b.header.GasLimit }

// Coinbase returns the miner address of the block.
func (b *Block) Coinbase() Address { return b.header.Coinbase }

// Hash returns the block's header hash.
func (b *Block) Hash() Hash { return b.header.Hash() }
