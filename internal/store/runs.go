package store

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
	"github.com/route-beacon/bgpsim/internal/metrics"
)

var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Sprintf("store: zstd encoder init: %v", err))
	}
}

// Writer persists completed runs to Postgres.
type Writer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewWriter(pool *pgxpool.Pool, logger *zap.Logger) *Writer {
	return &Writer{pool: pool, logger: logger}
}

// ComputeRunID derives a stable dedup key for a completed run: the
// SHA-256 of the validated config's canonical JSON, the scenario, and
// the final convergence_steps (DESIGN.md's "Run identity" decision) —
// the same content-hash dedup shape as the teacher's ComputeEventID,
// applied to a whole run instead of a single BMP message.
func ComputeRunID(cfg bgpcore.Config, convergenceSteps int) ([]byte, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config for run id: %w", err)
	}
	h := sha256.New()
	h.Write(cfgJSON)
	h.Write([]byte(cfg.Scenario))
	fmt.Fprintf(h, ":%d", convergenceSteps)
	return h.Sum(nil), nil
}

// SaveRun inserts a completed run's summary, deduping on run_id via
// ON CONFLICT DO NOTHING. Returns true if a new row was inserted.
func (w *Writer) SaveRun(ctx context.Context, cfg bgpcore.Config, results bgpcore.Results) (bool, error) {
	runID, err := ComputeRunID(cfg, results.Metrics.ConvergenceSteps)
	if err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("compute_run_id").Inc()
		return false, err
	}

	metricsJSON, err := json.Marshal(results.Metrics)
	if err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("marshal_metrics").Inc()
		return false, fmt.Errorf("marshaling metrics: %w", err)
	}

	timelineJSON, err := json.Marshal(results.Timeline)
	if err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("marshal_timeline").Inc()
		return false, fmt.Errorf("marshaling timeline: %w", err)
	}
	timelineZstd := zstdEncoder.EncodeAll(timelineJSON, nil)

	const insertSQL = `
		INSERT INTO simulation_runs (run_id, scenario, node_count, prefix_count, convergence_steps, total_events, metrics, timeline_zstd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING`

	tag, err := w.pool.Exec(ctx, insertSQL,
		runID, cfg.Scenario, len(cfg.Nodes), len(cfg.Prefixes),
		results.Metrics.ConvergenceSteps, results.Metrics.TotalEvents,
		metricsJSON, timelineZstd,
	)
	if err != nil {
		metrics.PersistErrorsTotal.WithLabelValues("insert").Inc()
		return false, fmt.Errorf("inserting run: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
