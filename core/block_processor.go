package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethvm/ethvm/core/state"
	"github.com/ethvm/ethvm/core/types"
	"github.com/ethvm/ethvm/log"
	"github.com/ethvm/ethvm/trie"
)

// Block processing errors. Any of these aborts the block and reverts every
// state mutation made on its behalf.
var (
	ErrNoBlock         = errors.New("block processor: no block supplied")
	ErrGasLimitReached = errors.New("block processor: transaction gas limit exceeds remaining block gas")
)

// Commitment mismatch fragments, concatenated into a single ValidationError
// so one invocation reports every failing check.
const (
	mismatchReceiptRoot = "invalid receipt trie root"
	mismatchBloom       = "invalid logs bloom"
	mismatchGasUsed     = "invalid gas used"
	mismatchStateRoot   = "invalid state root"
)

// ValidationError reports header commitments that disagree with the values
// computed by replaying the block. It is produced after the state has been
// committed: the computed post-state exists but does not match the block's
// claims, and the caller decides whether to discard it.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid block: " + strings.Join(e.Reasons, "; ")
}

// ExecutionOutcome is the executor-reported outcome of one transaction.
type ExecutionOutcome struct {
	ExceptionOccurred bool
	Logs              []*types.Log
}

// TxResult is the per-transaction result recorded by the processor. For a
// transaction whose executor invocation failed outright, Err carries that
// error and the remaining fields are zero.
type TxResult struct {
	GasUsed uint64
	Bloom   types.Bloom
	Outcome ExecutionOutcome
	Err     error
}

// TxExecutor executes a single transaction in the context of a block. It is
// invoked once per transaction, in block order, and must observe state
// mutations made by earlier transactions of the same block.
type TxExecutor interface {
	ExecuteTx(tx *types.Transaction, block *types.Block) (*TxResult, error)
}

// TxExecutorFunc adapts a function to the TxExecutor interface.
type TxExecutorFunc func(tx *types.Transaction, block *types.Block) (*TxResult, error)

// ExecuteTx calls f.
func (f TxExecutorFunc) ExecuteTx(tx *types.Transaction, block *types.Block) (*TxResult, error) {
	return f(tx, block)
}

// Hooks are the processor's lifecycle extension points. Before runs after
// the checkpoint opens and before any transaction; its error aborts the
// block. After runs with the completed result, success or validation
// failure, before ProcessBlock returns.
type Hooks struct {
	Before func(block *types.Block) error
	After  func(result *BlockResult) error
}

// ProcessOptions parameterize one ProcessBlock invocation.
type ProcessOptions struct {
	// Block is the block to process. Required.
	Block *types.Block

	// Generate stamps the computed commitments into the block header
	// instead of validating them against it.
	Generate bool

	// Root, if set, seeds the state store to this root before processing.
	Root *types.Hash
}

// BlockResult is the outcome of processing one block. Receipts and Results
// are appended in strict transaction order; when transaction k aborts the
// block, Receipts[k] is nil, Results has k+1 entries and processing stops.
// Every error is surfaced through Error, never panicked or returned aside.
type BlockResult struct {
	Receipts []*types.Receipt
	Results  []*TxResult
	Error    error
}

// blockContext threads the per-block accumulators through the transaction
// loop explicitly: the gas ledger, the aggregate bloom, the receipt trie
// and the processed-receipt counter.
type blockContext struct {
	ledger       GasLedger
	bloom        types.Bloom
	receiptTrie  *trie.ReceiptTrie
	receiptCount uint64
}

// BlockProcessor replays blocks against a state store. All dependencies
// are explicit: the store, the transaction executor, the consensus
// parameters and the lifecycle hooks. Invocations against one store must
// be serialized by the caller; the store's checkpoint stack is shared.
type BlockProcessor struct {
	config *ChainConfig
	db     state.StateDB
	exec   TxExecutor
	hooks  Hooks
	logger *log.Logger
}

// NewBlockProcessor creates a block processor from its collaborators.
// Hook fields may be nil.
func NewBlockProcessor(config *ChainConfig, db state.StateDB, exec TxExecutor, hooks Hooks) *BlockProcessor {
	if config == nil {
		config = DefaultChainConfig()
	}
	return &BlockProcessor{
		config: config,
		db:     db,
		exec:   exec,
		hooks:  hooks,
		logger: log.Default().Module("core"),
	}
}

// SetLogger replaces the processor's logger.
func (p *BlockProcessor) SetLogger(l *log.Logger) {
	if l != nil {
		p.logger = l
	}
}

// ProcessBlock replays the block's transactions in order, credits ommer and
// miner rewards, and either validates the header commitments (receipt trie
// root, logs bloom, gas used, state root) or, in generate mode, stamps the
// computed values into the header.
//
// A checkpoint is opened on the state store before the first transaction
// and resolved exactly once: committed when every transaction and reward
// credit succeeded, reverted otherwise. Validation mismatches are reported
// through a ValidationError after the commit — the state transition stands;
// only the block's claims are wrong.
func (p *BlockProcessor) ProcessBlock(opts ProcessOptions) *BlockResult {
	result := &BlockResult{}
	if opts.Block == nil {
		result.Error = ErrNoBlock
		return result
	}
	block := opts.Block
	header := block.Header()

	if opts.Root != nil {
		if err := p.db.SetRoot(*opts.Root); err != nil {
			result.Error = err
			return result
		}
	}

	p.db.Checkpoint()
	p.logger.Debug("processing block", "number", block.Number(), "txs", len(block.Transactions()), "generate", opts.Generate)

	ctx := &blockContext{receiptTrie: trie.NewReceiptTrie()}

	err := p.runPipeline(block, header, opts.Generate, ctx, result)
	if err != nil {
		// Block-fatal: undo every account mutation of this block.
		if rerr := p.db.Revert(); rerr != nil {
			err = fmt.Errorf("%w (revert failed: %v)", err, rerr)
		}
		result.Error = err
		p.logger.Debug("block aborted", "number", block.Number(), "err", err)
		return result
	}

	if hook := p.hooks.After; hook != nil {
		if herr := hook(result); herr != nil && result.Error == nil {
			result.Error = herr
		}
	}
	return result
}

// runPipeline runs the abortable stages: before-hook, transaction loop and
// reward distribution, then finishes with commit plus generation or
// validation. A returned error means the caller must revert.
func (p *BlockProcessor) runPipeline(block *types.Block, header *types.Header, generate bool, ctx *blockContext, result *BlockResult) error {
	if hook := p.hooks.Before; hook != nil {
		if err := hook(block); err != nil {
			return err
		}
	}

	for i, tx := range block.Transactions() {
		if err := p.applyTransaction(i, tx, block, header, generate, ctx, result); err != nil {
			return err
		}
	}

	if err := p.applyRewards(block); err != nil {
		return err
	}

	if generate {
		root, err := p.db.Root()
		if err != nil {
			return err
		}
		receiptRoot, err := ctx.receiptTrie.Root()
		if err != nil {
			return err
		}
		header.Root = root
		header.ReceiptHash = receiptRoot
		header.GasUsed = ctx.ledger.Uint64()
	}

	if err := p.db.Commit(); err != nil {
		return err
	}
	if err := p.db.Flush(); err != nil {
		// Too late to revert: the checkpoint is resolved. Surface the
		// failure without producing a validation result.
		result.Error = err
		return nil
	}

	if !generate {
		result.Error = p.validateCommitments(header, ctx)
		p.db.ClearCache()
	}
	return nil
}

// applyTransaction admits and executes one transaction, folding its gas,
// bloom and receipt into the block context.
func (p *BlockProcessor) applyTransaction(index int, tx *types.Transaction, block *types.Block, header *types.Header, generate bool, ctx *blockContext, result *BlockResult) error {
	// Conservative admission: the transaction's declared limit must fit
	// the remaining block budget, regardless of its eventual usage.
	if ctx.ledger.WouldExceed(header.GasLimit, tx.GasLimit()) {
		return fmt.Errorf("%w: tx %d limit %d, used %v, block limit %d",
			ErrGasLimitReached, index, tx.GasLimit(), ctx.ledger.Used(), header.GasLimit)
	}

	txResult, err := p.exec.ExecuteTx(tx, block)
	if err != nil {
		// Record the failure in order: a nil receipt at this position and
		// the raw executor error as the transaction result.
		result.Receipts = append(result.Receipts, nil)
		result.Results = append(result.Results, &TxResult{Err: err})
		return err
	}

	ctx.ledger.Add(txResult.GasUsed)
	ctx.bloom.Or(txResult.Bloom)
	if generate {
		// Mirror the running aggregate into the header as we go, not just
		// at block end.
		header.Bloom = ctx.bloom
	}

	status := types.ReceiptStatusSuccessful
	if txResult.Outcome.ExceptionOccurred {
		status = types.ReceiptStatusFailed
	}
	receipt := types.NewReceipt(status, ctx.ledger.Used())
	receipt.Bloom = ctx.bloom
	receipt.Logs = txResult.Outcome.Logs
	receipt.GasUsed = txResult.GasUsed

	encoded, err := receipt.EncodeRLP()
	if err != nil {
		result.Receipts = append(result.Receipts, nil)
		result.Results = append(result.Results, txResult)
		return err
	}
	// Keyed by the processed-receipt counter, which equals the block
	// position while aborts halt the loop.
	if err := ctx.receiptTrie.Put(ctx.receiptCount, encoded); err != nil {
		result.Receipts = append(result.Receipts, nil)
		result.Results = append(result.Results, txResult)
		return err
	}
	ctx.receiptCount++

	result.Receipts = append(result.Receipts, receipt)
	result.Results = append(result.Results, txResult)
	return nil
}

// validateCommitments compares every computed commitment with the header's
// claims, accumulating all mismatches into one error.
func (p *BlockProcessor) validateCommitments(header *types.Header, ctx *blockContext) error {
	var reasons []string

	if ctx.receiptCount > 0 {
		receiptRoot, err := ctx.receiptTrie.Root()
		if err != nil {
			return err
		}
		if receiptRoot != header.ReceiptHash {
			reasons = append(reasons, mismatchReceiptRoot)
		}
	}
	if ctx.bloom != header.Bloom {
		reasons = append(reasons, mismatchBloom)
	}
	if !ctx.ledger.EqualsUint64(header.GasUsed) {
		reasons = append(reasons, mismatchGasUsed)
	}
	root, err := p.db.Root()
	if err != nil {
		return err
	}
	if root != header.Root {
		reasons = append(reasons, mismatchStateRoot)
	}

	if len(reasons) == 0 {
		return nil
	}
	return &ValidationError{Reasons: reasons}
}
