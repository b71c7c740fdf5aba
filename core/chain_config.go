// Package core implements the block-level state transition: replaying a
// block's transactions against the world state, distributing rewards and
// validating or generating the header commitments.
package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Block reward schedule. The base miner reward is a consensus parameter
// reduced at the Byzantium and Constantinople forks.
var (
	frontierBlockReward       = big.NewInt(5 * params.Ether)
	byzantiumBlockReward      = big.NewInt(3 * params.Ether)
	constantinopleBlockReward = big.NewInt(2 * params.Ether)
)

// ChainConfig carries the consensus parameters the block processor needs:
// the fork schedule selecting the block reward. A nil fork block means the
// fork never activates.
type ChainConfig struct {
	ByzantiumBlock      *big.Int
	ConstantinopleBlock *big.Int
}

// DefaultChainConfig returns a config with no forks scheduled, i.e. the
// Frontier 5 ETH block reward throughout.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{}
}

// IsByzantium reports whether num is at or past the Byzantium fork.
func (c *ChainConfig) IsByzantium(num *big.Int) bool {
	return isForked(c.ByzantiumBlock, num)
}

// IsConstantinople reports whether num is at or past the Constantinople fork.
func (c *ChainConfig) IsConstantinople(num *big.Int) bool {
	return isForked(c.ConstantinopleBlock, num)
}

// BlockReward returns the base miner reward for a block at the given height.
func (c *ChainConfig) BlockReward(num *big.Int) *big.Int {
	switch {
	case c.IsConstantinople(num):
		return new(big.Int).Set(constantinopleBlockReward)
	case c.IsByzantium(num):
		return new(big.Int).Set(byzantiumBlockReward)
	default:
		return new(big.Int).Set(frontierBlockReward)
	}
}

func isForked(fork, num *big.Int) bool {
	if fork == nil || num == nil {
		return false
	}
	return fork.Cmp(num) <= 0
}
