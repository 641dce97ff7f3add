package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/mockchain/internal/batch"
	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/config"
	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/output"
	"github.com/manifest-network/mockchain/internal/utils"
)

// retryBackoff is the delay before the first retry; it doubles on every attempt.
var retryBackoff = 200 * time.Millisecond

// Simulate mines every block of the batch in order and writes the results to the output handler.
// It returns the mined blocks.
func Simulate(ctx context.Context, c *chain.MockChain, b *batch.Batch, outputHandler output.OutputHandler, cfg config.SimulateConfig) ([]*models.Block, error) {
	blocks := mineBatch(c, b)
	if len(blocks) == 0 {
		slog.Info("Batch is empty, nothing to mine")
		return nil, nil
	}

	if err := writeBlocks(ctx, blocks, outputHandler, cfg); err != nil {
		return nil, fmt.Errorf("failed to write mined blocks: %w", err)
	}
	return blocks, nil
}

// mineBatch mines sequentially; the chain is not safe for concurrent use.
func mineBatch(c *chain.MockChain, b *batch.Batch) []*models.Block {
	blocks := make([]*models.Block, 0, len(b.Blocks))
	for _, spec := range b.Blocks {
		block := c.MineBlock(spec.Transactions)
		logBlock(block, spec.Transactions)
		blocks = append(blocks, block)
	}
	return blocks
}

func logBlock(block *models.Block, txs []models.Transaction) {
	failed := 0
	for _, receipt := range block.Receipts {
		if utils.IsErr(receipt.Result) {
			failed++
		}
	}
	slog.Info("Mined block", "height", block.Height, "receipts", len(block.Receipts), "errors", failed)
	for i, receipt := range block.Receipts {
		slog.Debug("Receipt",
			"height", block.Height,
			"index", i,
			"method", txs[i].Method,
			"sender", txs[i].Sender,
			"result", receipt.Result)
	}
}

// writeBlocks writes blocks in parallel using goroutines.
func writeBlocks(ctx context.Context, blocks []*models.Block, outputHandler output.OutputHandler, cfg config.SimulateConfig) error {
	first, last := blocks[0].Height, blocks[len(blocks)-1].Height
	displayProgress := len(blocks) > 1
	if displayProgress {
		slog.Info("Writing blocks", "range", fmt.Sprintf("[%d, %d]", first, last))
	} else {
		slog.Info("Writing block", "height", first)
	}

	var bar *progressbar.ProgressBar
	if displayProgress {
		bar = progressbar.NewOptions64(
			int64(len(blocks)),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Writing blocks..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, cfg.MaxConcurrency)

	for _, block := range blocks {
		if egCtx.Err() != nil {
			slog.Info("Writing cancelled")
			break
		}

		block := block
		sem <- struct{}{}
		eg.Go(func() error {
			defer func() { <-sem }()

			if err := writeBlockWithRetry(egCtx, block, outputHandler, cfg.MaxRetries); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Block write error",
						"height", block.Height,
						"error", err,
						"errorType", fmt.Sprintf("%T", err))
				}
				return fmt.Errorf("failed to write block %d: %w", block.Height, err)
			}

			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("error while writing blocks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}
	return nil
}

// writeBlockWithRetry makes up to maxRetries attempts to write the block.
func writeBlockWithRetry(ctx context.Context, block *models.Block, outputHandler output.OutputHandler, maxRetries uint) error {
	var err error
	backoff := retryBackoff
	for attempt := uint(1); attempt <= maxRetries; attempt++ {
		if err = outputHandler.WriteBlock(ctx, block); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == maxRetries {
			break
		}

		slog.Warn("Retrying block write", "height", block.Height, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxRetries, err)
}
