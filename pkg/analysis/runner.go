package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritzau/pom-graph/pkg/config"
	"github.com/ritzau/pom-graph/pkg/cycles"
	"github.com/ritzau/pom-graph/pkg/diagram"
	"github.com/ritzau/pom-graph/pkg/graph"
	"github.com/ritzau/pom-graph/pkg/lens"
	"github.com/ritzau/pom-graph/pkg/logging"
	"github.com/ritzau/pom-graph/pkg/metrics"
	"github.com/ritzau/pom-graph/pkg/model"
	"github.com/ritzau/pom-graph/pkg/pom"
	"github.com/ritzau/pom-graph/pkg/pubsub"
	"github.com/ritzau/pom-graph/pkg/repository"
	"github.com/ritzau/pom-graph/pkg/resolver"
)

// Publisher follows the lifecycle of analysis runs (e.g., the web server)
type Publisher interface {
	RunStarted(reason string)
	RunFailed(reason string, err error)
	Publish(report *Report)
}

// Report is the outcome of one analysis run
type Report struct {
	POMPath    string
	OutputPath string
	Reason     string // e.g., "initial analysis", "root pom changed"
	Graph      *model.Graph
	Cycles     []cycles.Cycle
	Issues     Issues
	Changes    *lens.Diff // Against the previous run of the same runner
	Duration   time.Duration
	Finished   time.Time
}

// Summary condenses the report into the counts shown to users
func (r *Report) Summary() pubsub.RunSummary {
	return pubsub.RunSummary{
		Root:       r.Graph.Root(),
		Reason:     r.Reason,
		Artifacts:  len(r.Graph.Nodes()),
		Edges:      len(r.Graph.Edges()),
		Unexpanded: len(r.Graph.Unexpanded()),
		Cycles:     len(r.Cycles),
		Issues:     r.Issues.Total(),
		DurationMs: r.Duration.Milliseconds(),
		Finished:   r.Finished,
	}
}

// Runner orchestrates graph building, diagram output and cycle detection
type Runner struct {
	cfg       *config.Config
	repo      *repository.Repository
	mode      resolver.DiamondMode
	publisher Publisher
	previous  *model.Graph
	cache     *pom.Cache
	hits      int64 // Cache stats already exported as metrics
	misses    int64
	logger    *slog.Logger
	mu        sync.Mutex // Prevent concurrent analysis runs
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config) (*Runner, error) {
	mode, err := resolver.ParseDiamondMode(cfg.Diamond)
	if err != nil {
		return nil, err
	}
	cache, err := pom.NewCache(pom.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:    cfg,
		repo:   repository.New(cfg.Repository),
		mode:   mode,
		cache:  cache,
		logger: logging.New("analysis"),
	}, nil
}

// SetPublisher attaches a publisher that receives each report
func (r *Runner) SetPublisher(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// Run builds the graph, writes the diagram and publishes the report.
// Problems with individual POMs are counted in the report; only a cancelled
// context or a failed diagram write return an error.
func (r *Runner) Run(ctx context.Context, reason string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.logger.Info("starting analysis", "reason", reason, "pom", r.cfg.POMPath, "repository", r.repo.Root)
	if r.publisher != nil {
		r.publisher.RunStarted(reason)
	}

	report := &Report{
		POMPath:    r.cfg.POMPath,
		OutputPath: r.cfg.OutputPath,
		Reason:     reason,
	}

	builder := resolver.New(r.repo,
		resolver.WithDiamondMode(r.mode),
		resolver.WithDocumentCache(r.cache),
		resolver.WithReporter(func(err error) {
			report.Issues.Record(err)
			r.logger.Warn("skipping", "error", err)
		}),
	)

	g, err := builder.Build(ctx, r.cfg.POMPath)
	if err != nil {
		return nil, r.fail(reason, fmt.Errorf("building graph: %w", err))
	}
	report.Graph = g

	if err := diagram.WriteFile(r.cfg.OutputPath, g); err != nil {
		return nil, r.fail(reason, err)
	}

	report.Cycles = cycles.FindCycles(graph.FromModel(g))
	report.Changes = lens.ComputeDiff(r.previous, g)
	r.previous = g
	report.Finished = time.Now()
	report.Duration = report.Finished.Sub(start)

	r.recordMetrics(report)

	summary := report.Summary()
	r.logger.Info("analysis complete",
		"root", summary.Root,
		"artifacts", summary.Artifacts,
		"edges", summary.Edges,
		"cycles", summary.Cycles,
		"issues", summary.Issues,
		"durationMs", summary.DurationMs,
	)

	if r.publisher != nil {
		r.publisher.Publish(report)
	}
	return report, nil
}

func (r *Runner) recordMetrics(report *Report) {
	summary := report.Summary()
	metrics.RunsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.RunDuration.Observe(report.Duration.Seconds())
	metrics.Artifacts.Set(float64(summary.Artifacts))
	metrics.Edges.Set(float64(summary.Edges))
	metrics.Unexpanded.Set(float64(summary.Unexpanded))
	metrics.Cycles.Set(float64(summary.Cycles))
	for kind, count := range report.Issues.ByKind() {
		metrics.Issues.WithLabelValues(kind).Set(float64(count))
	}

	hits, misses := r.cache.Stats()
	metrics.DocumentCache.WithLabelValues("hit").Add(float64(hits - r.hits))
	metrics.DocumentCache.WithLabelValues("miss").Add(float64(misses - r.misses))
	r.logger.Debug("document cache", "hits", hits-r.hits, "misses", misses-r.misses, "cached", r.cache.Len())
	r.hits, r.misses = hits, misses
}

func (r *Runner) fail(reason string, err error) error {
	metrics.RunsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	r.logger.Error("analysis failed", "reason", reason, "error", err)
	if r.publisher != nil {
		r.publisher.RunFailed(reason, err)
	}
	return err
}
