package core

import "math/big"

// GasLedger accumulates the cumulative gas used across a block. The total
// is kept in arbitrary precision and only ever grows; admission decisions
// compare against the block's declared limit before a transaction runs.
type GasLedger struct {
	used big.Int
}

// Add credits gas consumed by one transaction to the running total.
func (l *GasLedger) Add(gas uint64) {
	l.used.Add(&l.used, new(big.Int).SetUint64(gas))
}

// Used returns a copy of the cumulative total.
func (l *GasLedger) Used() *big.Int {
	return new(big.Int).Set(&l.used)
}

// WouldExceed reports whether admitting a transaction with the given
// declared gas limit would overflow the block's remaining budget, i.e.
// limit < used + txGas. The check is conservative: it charges the
// transaction's own limit, not its eventual usage.
func (l *GasLedger) WouldExceed(blockGasLimit, txGas uint64) bool {
	sum := new(big.Int).SetUint64(txGas)
	sum.Add(sum, &l.used)
	return new(big.Int).SetUint64(blockGasLimit).Cmp(sum) < 0
}

// EqualsUint64 reports whether the total equals v.
func (l *GasLedger) EqualsUint64(v uint64) bool {
	return l.used.Cmp(new(big.Int).SetUint64(v)) == 0
}

// Uint64 returns the total as a uint64. The total is bounded by the block
// gas limit whenever admission checks passed, so this does not truncate in
// practice.
func (l *GasLedger) Uint64() uint64 {
	return l.used.Uint64()
}
