// Package metrics exposes Prometheus metrics for mined blocks and receipts.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manifest-network/mockchain/internal/models"
	"github.com/manifest-network/mockchain/internal/utils"
)

const namespace = "mockchain"

// Recorder tracks mined blocks. It satisfies chain.Recorder.
type Recorder struct {
	blocksMined prometheus.Counter
	receipts    *prometheus.CounterVec
	height      prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		blocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_mined_total",
			Help:      "Total number of blocks mined.",
		}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_total",
			Help:      "Total number of receipts by outcome.",
		}, []string{"outcome"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Current chain height.",
		}),
	}

	for _, c := range []prometheus.Collector{r.blocksMined, r.receipts, r.height} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) RecordBlock(block *models.Block) {
	r.blocksMined.Inc()
	r.height.Set(float64(block.Height))
	for _, receipt := range block.Receipts {
		outcome := "err"
		if res, err := utils.ParseResult(receipt.Result); err == nil && res.Ok {
			outcome = "ok"
		}
		r.receipts.WithLabelValues(outcome).Inc()
	}
}

// StartServer serves /metrics on addr until ctx is done.
func StartServer(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting Prometheus metrics server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down metrics server: %w", err)
		}
		return nil
	}
}
