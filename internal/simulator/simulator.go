// Package simulator mines batches on a mock chain and writes the resulting blocks to an output.
package simulator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/config"
	"github.com/manifest-network/mockchain/internal/output"
)

// NewChain creates a chain for cfg. With cfg.Resume it starts from the latest
// height already present in the output, and reports any gaps found there.
func NewChain(ctx context.Context, outputHandler output.OutputHandler, cfg config.SimulateConfig, opts ...chain.Option) (*chain.MockChain, error) {
	opts = append([]chain.Option{chain.WithAdmin(cfg.Admin)}, opts...)
	if !cfg.Resume {
		return chain.New(opts...), nil
	}

	latest, err := outputHandler.GetLatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block: %w", err)
	}

	if err := reportMissingBlocks(ctx, outputHandler); err != nil {
		return nil, err
	}

	if latest == nil || latest.Height <= chain.DefaultStartHeight {
		slog.Info("No previous blocks found, starting from genesis", "height", chain.DefaultStartHeight)
		return chain.New(opts...), nil
	}

	earliest, err := outputHandler.GetEarliestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get earliest block: %w", err)
	}
	if earliest != nil {
		slog.Info("Found persisted blocks", "range", fmt.Sprintf("[%d, %d]", earliest.Height, latest.Height))
	}

	slog.Info("Resuming from latest block", "height", latest.Height)
	return chain.New(append(opts, chain.WithStartHeight(latest.Height))...), nil
}

// reportMissingBlocks logs heights missing from the output. Blocks are not re-mined.
func reportMissingBlocks(ctx context.Context, outputHandler output.OutputHandler) error {
	missingBlockIds, err := outputHandler.GetMissingBlockIds(ctx)
	if err != nil {
		return fmt.Errorf("failed to get missing block IDs: %w", err)
	}

	if len(missingBlockIds) > 0 {
		slog.Warn("Missing blocks detected", "count", len(missingBlockIds), "first", missingBlockIds[0])
	}
	return nil
}
