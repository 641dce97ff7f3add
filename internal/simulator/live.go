package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/config"
	"github.com/manifest-network/mockchain/internal/output"
)

// Live mines an empty block every cfg.BlockTime seconds until ctx is cancelled.
func Live(ctx context.Context, c *chain.MockChain, outputHandler output.OutputHandler, cfg config.SimulateConfig) error {
	return live(ctx, c, outputHandler, cfg, time.Duration(cfg.BlockTime)*time.Second)
}

func live(ctx context.Context, c *chain.MockChain, outputHandler output.OutputHandler, cfg config.SimulateConfig, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			block := c.MineBlock(nil)
			logBlock(block, nil)
			if err := writeBlockWithRetry(ctx, block, outputHandler, cfg.MaxRetries); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to write block %d: %w", block.Height, err)
			}
		}
	}
}
