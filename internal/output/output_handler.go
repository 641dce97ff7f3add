package output

import (
	"context"

	"github.com/manifest-network/mockchain/internal/models"
)

type OutputHandler interface {
	// WriteBlock writes a mined block and its receipts to the output.
	WriteBlock(ctx context.Context, block *models.Block) error

	// GetLatestBlock returns the highest block in the output, or nil if empty.
	GetLatestBlock(ctx context.Context) (*models.Block, error)

	// GetEarliestBlock returns the lowest block in the output, or nil if empty.
	GetEarliestBlock(ctx context.Context) (*models.Block, error)

	// GetMissingBlockIds returns the heights missing between the earliest and latest blocks.
	GetMissingBlockIds(ctx context.Context) ([]uint64, error)

	// Close closes the output handler.
	Close() error
}
