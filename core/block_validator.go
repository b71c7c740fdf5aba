package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"

	"github.com/ethvm/ethvm/core/types"
)

// Structural validation errors.
var (
	ErrUnknownParent    = errors.New("block validator: parent hash mismatch")
	ErrInvalidNumber    = errors.New("block validator: number is not parent number + 1")
	ErrInvalidTimestamp = errors.New("block validator: timestamp not greater than parent")
	ErrExtraDataTooLong = errors.New("block validator: extra data too long")
	ErrInvalidGasUsed   = errors.New("block validator: gas used exceeds gas limit")
	ErrInvalidGasLimit  = errors.New("block validator: gas limit out of bounds")
	ErrTooManyOmmers    = errors.New("block validator: too many ommers")
	ErrDuplicateOmmer   = errors.New("block validator: duplicate ommer")
	ErrOmmerIsSelf      = errors.New("block validator: ommer has the block's own number")
)

// MaxOmmers is the maximum number of ommer headers a block may include.
const MaxOmmers = 2

// BlockValidator checks the structural consensus rules of headers and
// bodies prior to state transition. It deliberately covers no proof-of-work
// or difficulty rules; those belong to an external consensus engine.
type BlockValidator struct {
	config *ChainConfig
}

// NewBlockValidator creates a validator with the given chain config.
func NewBlockValidator(config *ChainConfig) *BlockValidator {
	if config == nil {
		config = DefaultChainConfig()
	}
	return &BlockValidator{config: config}
}

// ValidateHeader checks a header against its parent: linkage, numbering,
// timestamp ordering, extra-data size and the gas invariants.
func (v *BlockValidator) ValidateHeader(header, parent *types.Header) error {
	if header.ParentHash != parent.Hash() {
		return fmt.Errorf("%w: want %s, got %s", ErrUnknownParent, parent.Hash(), header.ParentHash)
	}
	expected := new(big.Int).Add(parent.Number, big.NewInt(1))
	if header.Number == nil || header.Number.Cmp(expected) != 0 {
		return fmt.Errorf("%w: want %v, got %v", ErrInvalidNumber, expected, header.Number)
	}
	if header.Time <= parent.Time {
		return fmt.Errorf("%w: parent %d, got %d", ErrInvalidTimestamp, parent.Time, header.Time)
	}
	if uint64(len(header.Extra)) > params.MaximumExtraDataSize {
		return fmt.Errorf("%w: %d > %d", ErrExtraDataTooLong, len(header.Extra), params.MaximumExtraDataSize)
	}
	if header.GasUsed > header.GasLimit {
		return fmt.Errorf("%w: used %d, limit %d", ErrInvalidGasUsed, header.GasUsed, header.GasLimit)
	}
	return v.validateGasLimit(header.GasLimit, parent.GasLimit)
}

// validateGasLimit enforces the minimum gas limit and the bounded
// per-block gas limit drift.
func (v *BlockValidator) validateGasLimit(limit, parentLimit uint64) error {
	if limit < params.MinGasLimit {
		return fmt.Errorf("%w: %d < minimum %d", ErrInvalidGasLimit, limit, params.MinGasLimit)
	}
	diff := limit - parentLimit
	if parentLimit > limit {
		diff = parentLimit - limit
	}
	if maxDiff := parentLimit / params.GasLimitBoundDivisor; diff >= maxDiff {
		return fmt.Errorf("%w: change %d exceeds bound %d", ErrInvalidGasLimit, diff, maxDiff)
	}
	return nil
}

// ValidateBody checks the block's ommer list: count cap, no duplicates and
// no ommer at the block's own height.
func (v *BlockValidator) ValidateBody(block *types.Block) error {
	uncles := block.Uncles()
	if len(uncles) > MaxOmmers {
		return fmt.Errorf("%w: %d > %d", ErrTooManyOmmers, len(uncles), MaxOmmers)
	}
	seen := make(map[types.Hash]struct{}, len(uncles))
	for _, ommer := range uncles {
		hash := ommer.Hash()
		if _, ok := seen[hash]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateOmmer, hash)
		}
		seen[hash] = struct{}{}
		if ommer.Number != nil && ommer.Number.Cmp(block.Number()) == 0 {
			return fmt.Errorf("%w: %s", ErrOmmerIsSelf, hash)
		}
	}
	return nil
}
