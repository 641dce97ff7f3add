package mockchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/mockchain/internal/batch"
	"github.com/manifest-network/mockchain/internal/chain"
	"github.com/manifest-network/mockchain/internal/config"
	"github.com/manifest-network/mockchain/internal/metrics"
	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/output"
	"github.com/manifest-network/mockchain/internal/output/memory"
	"github.com/manifest-network/mockchain/internal/output/postgresql"
	"github.com/manifest-network/mockchain/internal/simulator"
)

func newSimulateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [source]",
		Short: "Mine a batch of contract calls and write the blocks to an output",
		Long: `Mine a batch of contract calls on the mock chain.

The source is a local .json/.yaml file or an http(s) URL. Without a source the
built-in email-verification scenario is mined.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set("source", args[0])
			}

			cfg, err := config.LoadConfig(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runSimulate(ctx, cmd, cfg)
		},
	}

	cmd.Flags().Uint("max-concurrency", 100, "Maximum block writes to run in parallel")
	cmd.Flags().Uint("max-retries", 3, "Maximum number of attempts per block write")
	cmd.Flags().Uint("block-time", 2, "Seconds between blocks in live mode")
	cmd.Flags().Bool("live", false, "Keep mining empty blocks after the batch until interrupted")
	cmd.Flags().Bool("resume", false, "Continue from the latest block already in the output")
	cmd.Flags().String("admin", chain.DefaultAdmin, "Sender allowed to confirm verifications")
	cmd.Flags().String("output", config.OutputMemory, "Output kind (memory|postgres)")
	cmd.Flags().String("postgres-conn", "", "PostgreSQL connection string")
	cmd.Flags().Bool("enable-prometheus", false, "Expose Prometheus metrics")
	cmd.Flags().String("prometheus-addr", "0.0.0.0:2112", "Address of the Prometheus metrics server")
	mustBindPFlags(v, cmd)

	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	b, err := loadBatch(ctx, cfg.Simulate.Source)
	if err != nil {
		return err
	}

	outputHandler, err := newOutputHandler(ctx, cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if err := outputHandler.Close(); err != nil {
			slog.Warn("Failed to close output handler", "error", err)
		}
	}()

	var opts []chain.Option
	eg, egCtx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(egCtx)
	defer stopMetrics()

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		recorder, err := metrics.NewRecorder(reg)
		if err != nil {
			return err
		}
		opts = append(opts, chain.WithRecorder(recorder))
		eg.Go(func() error {
			return metrics.StartServer(metricsCtx, cfg.Metrics.Addr, reg)
		})
	}

	eg.Go(func() error {
		defer stopMetrics()

		c, err := simulator.NewChain(egCtx, outputHandler, cfg.Simulate, opts...)
		if err != nil {
			return err
		}

		blocks, err := simulator.Simulate(egCtx, c, b, outputHandler, cfg.Simulate)
		if err != nil {
			return err
		}
		printSummary(cmd, blocks)

		if cfg.Simulate.Live {
			slog.Info("Entering live mode", "blockTime", cfg.Simulate.BlockTime)
			return simulator.Live(egCtx, c, outputHandler, cfg.Simulate)
		}
		return nil
	})

	return eg.Wait()
}

func loadBatch(ctx context.Context, source string) (*batch.Batch, error) {
	if source == "" {
		slog.Info("No source given, using built-in email-verification scenario")
		return batch.Default(), nil
	}

	b, err := batch.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	slog.Info("Loaded batch", "source", source, "blocks", len(b.Blocks), "transactions", b.TransactionCount())
	return b, nil
}

func newOutputHandler(ctx context.Context, cfg config.OutputConfig) (output.OutputHandler, error) {
	switch cfg.Kind {
	case config.OutputPostgres:
		h, err := postgresql.NewPostgresOutputHandler(ctx, cfg.PostgresConn)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres output handler: %w", err)
		}
		return h, nil
	default:
		return memory.NewOutputHandler(), nil
	}
}

func printSummary(cmd *cobra.Command, blocks []*models.Block) {
	out := cmd.OutOrStdout()
	for _, block := range blocks {
		fmt.Fprintf(out, "block %d\n", block.Height)
		for i, receipt := range block.Receipts {
			fmt.Fprintf(out, "  [%d] %s\n", i, receipt.Result)
		}
	}
}
