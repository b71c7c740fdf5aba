package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/ethvm/ethvm/core/state"
	"github.com/ethvm/ethvm/core/types"
)

// Reward crediting errors.
var (
	ErrAccountLookup = errors.New("rewards: account lookup failed")
	ErrAccountWrite  = errors.New("rewards: account write failed")
	ErrRewardRange   = errors.New("rewards: amount out of range")
	ErrOmmerNumber   = errors.New("rewards: ommer header has no number")
)

// CalcOmmerReward computes the reward for one ommer included by a block:
// (8 - (blockNum - ommerNum)) * minerReward / 8, clamped at zero. An ommer
// eight or more blocks old earns nothing.
func CalcOmmerReward(blockNum, ommerNum, minerReward *big.Int) *big.Int {
	heightDiff := new(big.Int).Sub(blockNum, ommerNum)
	factor := new(big.Int).Sub(big.NewInt(8), heightDiff)
	if factor.Sign() <= 0 {
		return new(big.Int)
	}
	reward := new(big.Int).Mul(factor, minerReward)
	return reward.Div(reward, big.NewInt(8))
}

// CalcMinerReward computes the block producer's reward: the base reward
// plus 1/32 of it per included ommer.
func CalcMinerReward(minerReward *big.Int, ommerCount int) *big.Int {
	nephew := new(big.Int).Div(minerReward, big.NewInt(32))
	reward := new(big.Int).Mul(nephew, big.NewInt(int64(ommerCount)))
	return reward.Add(reward, minerReward)
}

// creditReward adds amount to the balance of the account at addr, reading
// and writing through the state store.
func creditReward(db state.StateDB, addr types.Address, amount *big.Int) error {
	account, err := db.GetAccount(addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAccountLookup, addr, err)
	}
	reward, overflow := uint256.FromBig(amount)
	if overflow || amount.Sign() < 0 {
		return fmt.Errorf("%w: %v", ErrRewardRange, amount)
	}
	account.Balance = new(uint256.Int).Add(account.Balance, reward)
	if err := db.PutAccount(addr, account); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrAccountWrite, addr, err)
	}
	return nil
}

// applyRewards credits every ommer's coinbase and then the block's miner.
// It runs only after all transactions succeeded.
func (p *BlockProcessor) applyRewards(block *types.Block) error {
	minerReward := p.config.BlockReward(block.Number())

	for i, ommer := range block.Uncles() {
		if ommer.Number == nil {
			return fmt.Errorf("%w: ommer %d", ErrOmmerNumber, i)
		}
		reward := CalcOmmerReward(block.Number(), ommer.Number, minerReward)
		if err := creditReward(p.db, ommer.Coinbase, reward); err != nil {
			return err
		}
	}
	reward := CalcMinerReward(minerReward, len(block.Uncles()))
	return creditReward(p.db, block.Coinbase(), reward)
}
