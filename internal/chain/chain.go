// Package chain implements an in-process mock ledger that mines blocks of
// email-verification contract calls and returns canned receipts.
package chain

import (
	"github.com/manifest-network/mockchain/internal/models"
)

const (
	ContractEmailVerification = "email-verification"

	MethodRequestVerification = "request-verification"
	MethodConfirmVerification = "confirm-verification"

	ResultOkTrue      = "(ok true)"
	ResultErrNotAdmin = "(err u100)"
	ResultErrUnknown  = "(err unknown)"

	// DefaultAdmin is the sender allowed to confirm verifications.
	DefaultAdmin = "deployer"
	// DefaultStartHeight is the height of a freshly created chain.
	DefaultStartHeight uint64 = 1
)

// Recorder observes every mined block.
type Recorder interface {
	RecordBlock(block *models.Block)
}

// Option configures a MockChain.
type Option func(*MockChain)

// WithAdmin sets the sender treated as the contract admin.
func WithAdmin(admin string) Option {
	return func(c *MockChain) {
		c.admin = admin
	}
}

// WithStartHeight sets the height the chain starts from.
func WithStartHeight(height uint64) Option {
	return func(c *MockChain) {
		c.height = height
	}
}

// WithRecorder attaches a recorder notified after each block is mined.
func WithRecorder(r Recorder) Option {
	return func(c *MockChain) {
		c.recorder = r
	}
}

// MockChain holds a monotonic height counter and an append-only block log.
// It is not safe for concurrent use.
type MockChain struct {
	height   uint64
	blocks   []*models.Block
	admin    string
	recorder Recorder
}

// New returns a chain at DefaultStartHeight with an empty block log.
func New(opts ...Option) *MockChain {
	c := &MockChain{
		height: DefaultStartHeight,
		admin:  DefaultAdmin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MineBlock computes one receipt per transaction, in input order, advances the
// height by exactly one and appends the new block to the log. It never fails.
func (c *MockChain) MineBlock(transactions []models.Transaction) *models.Block {
	receipts := make([]models.Receipt, len(transactions))
	for i, tx := range transactions {
		receipts[i] = ReceiptFor(tx, c.admin)
	}

	c.height++
	block := &models.Block{
		Height:   c.height,
		Receipts: receipts,
	}
	c.blocks = append(c.blocks, block)

	if c.recorder != nil {
		c.recorder.RecordBlock(block)
	}

	return block
}

// Height returns the current chain height.
func (c *MockChain) Height() uint64 {
	return c.height
}

// Admin returns the configured admin sender.
func (c *MockChain) Admin() string {
	return c.admin
}

// Blocks returns a copy of the block log.
func (c *MockChain) Blocks() []*models.Block {
	out := make([]*models.Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}

// ReceiptFor is the receipt rule table, keyed on method and sender.
func ReceiptFor(tx models.Transaction, admin string) models.Receipt {
	switch {
	case tx.Method == MethodRequestVerification:
		return models.Receipt{Result: ResultOkTrue}
	case tx.Method == MethodConfirmVerification && tx.Sender != admin:
		return models.Receipt{Result: ResultErrNotAdmin}
	case tx.Method == MethodConfirmVerification:
		return models.Receipt{Result: ResultOkTrue}
	default:
		return models.Receipt{Result: ResultErrUnknown}
	}
}

// DefaultAccounts returns the fixture accounts used by the built-in scenarios.
func DefaultAccounts() map[string]models.Account {
	return map[string]models.Account{
		"deployer": {Address: "deployer"},
		"wallet_1": {Address: "wallet_1"},
	}
}
