package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"

	"github.com/ethvm/ethvm/core/state"
	"github.com/ethvm/ethvm/core/types"
)

func TestCalcOmmerReward(t *testing.T) {
	base := big.NewInt(8 * params.Ether)
	cases := []struct {
		block, ommer int64
		want         int64
	}{
		{10, 9, 7 * params.Ether},  // one block back: 7/8
		{10, 8, 6 * params.Ether},  // two back: 6/8
		{10, 3, 1 * params.Ether},  // seven back: 1/8
		{10, 2, 0},                 // eight back: nothing
		{100, 1, 0},                // ancient ommer
	}
	for _, c := range cases {
		got := CalcOmmerReward(big.NewInt(c.block), big.NewInt(c.ommer), base)
		if got.Cmp(big.NewInt(c.want)) != 0 {
			t.Errorf("CalcOmmerReward(%d, %d) = %s, want %d", c.block, c.ommer, got, c.want)
		}
	}
}

func TestCalcMinerReward(t *testing.T) {
	// 32 ether and up exceed int64; keep the arithmetic in big.Int.
	ether := func(n int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
	}
	base := ether(32)
	cases := []struct {
		ommers int
		want   *big.Int
	}{
		{0, ether(32)},
		{1, ether(33)},
		{2, ether(34)},
	}
	for _, c := range cases {
		got := CalcMinerReward(base, c.ommers)
		if got.Cmp(c.want) != 0 {
			t.Errorf("CalcMinerReward(%d ommers) = %s, want %s", c.ommers, got, c.want)
		}
	}
}

func TestApplyRewardsCreditsOmmersAndMiner(t *testing.T) {
	db := state.NewMemoryStateDB()
	p := NewBlockProcessor(DefaultChainConfig(), db, nil, Hooks{})

	miner := types.Address{0x01}
	ommerA := types.Address{0x02}
	ommerB := types.Address{0x03}

	header := &types.Header{Number: big.NewInt(10), Coinbase: miner}
	uncles := []*types.Header{
		{Number: big.NewInt(9), Coinbase: ommerA},
		{Number: big.NewInt(8), Coinbase: ommerB},
	}
	block := types.NewBlock(header, nil, uncles)

	if err := p.applyRewards(block); err != nil {
		t.Fatal(err)
	}

	base := big.NewInt(5 * params.Ether)
	checks := []struct {
		addr types.Address
		want *big.Int
	}{
		{ommerA, CalcOmmerReward(big.NewInt(10), big.NewInt(9), base)},
		{ommerB, CalcOmmerReward(big.NewInt(10), big.NewInt(8), base)},
		{miner, CalcMinerReward(base, 2)},
	}
	for _, c := range checks {
		acc, err := db.GetAccount(c.addr)
		if err != nil {
			t.Fatal(err)
		}
		if acc.Balance.ToBig().Cmp(c.want) != 0 {
			t.Errorf("balance of %s = %s, want %s", c.addr, acc.Balance, c.want)
		}
	}
}

func TestApplyRewardsAddsToExistingBalance(t *testing.T) {
	db := state.NewMemoryStateDB()
	p := NewBlockProcessor(DefaultChainConfig(), db, nil, Hooks{})

	miner := types.Address{0x01}
	acc, err := db.GetAccount(miner)
	if err != nil {
		t.Fatal(err)
	}
	acc.Balance.SetUint64(7)
	if err := db.PutAccount(miner, acc); err != nil {
		t.Fatal(err)
	}

	block := types.NewBlock(&types.Header{Number: big.NewInt(1), Coinbase: miner}, nil, nil)
	if err := p.applyRewards(block); err != nil {
		t.Fatal(err)
	}

	acc, err = db.GetAccount(miner)
	if err != nil {
		t.Fatal(err)
	}
	want := new(big.Int).Add(big.NewInt(7), big.NewInt(5*params.Ether))
	if acc.Balance.ToBig().Cmp(want) != 0 {
		t.Fatalf("balance = %s, want %s", acc.Balance, want)
	}
}

func TestApplyRewardsRejectsNilOmmerNumber(t *testing.T) {
	db := state.NewMemoryStateDB()
	p := NewBlockProcessor(DefaultChainConfig(), db, nil, Hooks{})

	header := &types.Header{Number: big.NewInt(10), Coinbase: types.Address{0x01}}
	uncles := []*types.Header{{Coinbase: types.Address{0x02}}} // no number
	block := types.NewBlock(header, nil, uncles)

	err := p.applyRewards(block)
	if !errors.Is(err, ErrOmmerNumber) {
		t.Fatalf("got %v, want ErrOmmerNumber", err)
	}
}

func TestCreditRewardRejectsNegative(t *testing.T) {
	db := state.NewMemoryStateDB()
	err := creditReward(db, types.Address{0x01}, big.NewInt(-1))
	if err == nil {
		t.Fatal("expected error for negative reward")
	}
}
