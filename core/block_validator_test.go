package core

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"

	"github.com/ethvm/ethvm/core/types"
)

func validParentChild() (*types.Header, *types.Header) {
	parent := &types.Header{
		Number:   big.NewInt(10),
		GasLimit: 8_000_000,
		Time:     1000,
	}
	child := &types.Header{
		ParentHash: parent.Hash(),
		Number:     big.NewInt(11),
		GasLimit:   8_000_000,
		GasUsed:    21_000,
		Time:       1012,
	}
	return parent, child
}

func TestValidateHeaderAccepts(t *testing.T) {
	parent, child := validParentChild()
	if err := NewBlockValidator(nil).ValidateHeader(child, parent); err != nil {
		t.Fatal(err)
	}
}

func TestValidateHeaderRejections(t *testing.T) {
	v := NewBlockValidator(nil)
	cases := []struct {
		name   string
		mutate func(child, parent *types.Header)
		want   error
	}{
		{"parent hash", func(c, p *types.Header) { c.ParentHash = types.Hash{0xff} }, ErrUnknownParent},
		{"number gap", func(c, p *types.Header) { c.Number = big.NewInt(13) }, ErrInvalidNumber},
		{"nil number", func(c, p *types.Header) { c.Number = nil }, ErrInvalidNumber},
		{"stale timestamp", func(c, p *types.Header) { c.Time = p.Time }, ErrInvalidTimestamp},
		{"extra data", func(c, p *types.Header) {
			c.Extra = bytes.Repeat([]byte{0x1}, int(params.MaximumExtraDataSize)+1)
		}, ErrExtraDataTooLong},
		{"gas used over limit", func(c, p *types.Header) { c.GasUsed = c.GasLimit + 1 }, ErrInvalidGasUsed},
		{"gas limit below minimum", func(c, p *types.Header) { c.GasLimit = params.MinGasLimit - 1; c.GasUsed = 0 }, ErrInvalidGasLimit},
		{"gas limit drift", func(c, p *types.Header) { c.GasLimit = p.GasLimit + p.GasLimit/params.GasLimitBoundDivisor }, ErrInvalidGasLimit},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			parent, child := validParentChild()
			c.mutate(child, parent)
			err := v.ValidateHeader(child, parent)
			if !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
		})
	}
}

func TestValidateGasLimitDriftWithinBound(t *testing.T) {
	parent, child := validParentChild()
	child.GasLimit = parent.GasLimit + parent.GasLimit/params.GasLimitBoundDivisor - 1
	if err := NewBlockValidator(nil).ValidateHeader(child, parent); err != nil {
		t.Fatal(err)
	}
}

func TestValidateBody(t *testing.T) {
	v := NewBlockValidator(nil)
	header := &types.Header{Number: big.NewInt(10)}

	ommer := func(num int64, tag byte) *types.Header {
		return &types.Header{Number: big.NewInt(num), Extra: []byte{tag}}
	}

	block := types.NewBlock(header, nil, []*types.Header{ommer(9, 1), ommer(8, 2)})
	if err := v.ValidateBody(block); err != nil {
		t.Fatal(err)
	}

	block = types.NewBlock(header, nil, []*types.Header{ommer(9, 1), ommer(8, 2), ommer(7, 3)})
	if err := v.ValidateBody(block); !errors.Is(err, ErrTooManyOmmers) {
		t.Fatalf("got %v, want ErrTooManyOmmers", err)
	}

	dup := ommer(9, 1)
	block = types.NewBlock(header, nil, []*types.Header{dup, ommer(9, 1)})
	if err := v.ValidateBody(block); !errors.Is(err, ErrDuplicateOmmer) {
		t.Fatalf("got %v, want ErrDuplicateOmmer", err)
	}

	block = types.NewBlock(header, nil, []*types.Header{ommer(10, 1)})
	if err := v.ValidateBody(block); !errors.Is(err, ErrOmmerIsSelf) {
		t.Fatalf("got %v, want ErrOmmerIsSelf", err)
	}
}
