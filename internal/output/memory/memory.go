// Package memory provides an in-process OutputHandler.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/output"
)

var _ output.OutputHandler = (*OutputHandler)(nil)

type OutputHandler struct {
	mu     sync.RWMutex
	blocks map[uint64]*models.Block
}

func NewOutputHandler() *OutputHandler {
	return &OutputHandler{blocks: make(map[uint64]*models.Block)}
}

func (h *OutputHandler) WriteBlock(ctx context.Context, block *models.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.blocks[block.Height] = block
	return nil
}

func (h *OutputHandler) GetLatestBlock(_ context.Context) (*models.Block, error) {
	heights := h.heights()
	if len(heights) == 0 {
		return nil, nil
	}
	return h.Block(heights[len(heights)-1]), nil
}

func (h *OutputHandler) GetEarliestBlock(_ context.Context) (*models.Block, error) {
	heights := h.heights()
	if len(heights) == 0 {
		return nil, nil
	}
	return h.Block(heights[0]), nil
}

func (h *OutputHandler) GetMissingBlockIds(_ context.Context) ([]uint64, error) {
	heights := h.heights()
	var missing []uint64
	for i := 1; i < len(heights); i++ {
		for id := heights[i-1] + 1; id < heights[i]; id++ {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (h *OutputHandler) Close() error {
	return nil
}

// Block returns the stored block at height, or nil.
func (h *OutputHandler) Block(height uint64) *models.Block {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.blocks[height]
}

// Len returns the number of stored blocks.
func (h *OutputHandler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.blocks)
}

func (h *OutputHandler) heights() []uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	heights := make([]uint64, 0, len(h.blocks))
	for height := range h.blocks {
		heights = append(heights, height)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}
