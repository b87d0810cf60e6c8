package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/geocode-lookup-service/internal/domain"
	"github.com/couchcryptid/geocode-lookup-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchExtractor reads up to batchSize lookup requests from the source topic.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw lookup request into a lookup result. An error means
// the message itself is unusable; a failed lookup is still a result.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.LookupResult, error)
}

// BatchLoader publishes lookup results to the sink topic.
type BatchLoader interface {
	LoadBatch(ctx context.Context, results []domain.LookupResult) error
}

const (
	minRetryDelay = 200 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// Pipeline consumes lookup requests, resolves them and publishes the results.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		batchSize:   batchSize,
	}
}

// CheckReadiness reports ready once a batch of results has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run resolves batches until the context is cancelled. Only Kafka failures
// are retried; a lookup that fails is published as an error result.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	delay := retryDelay{min: minRetryDelay, max: maxRetryDelay}
	for ctx.Err() == nil {
		if err := p.runBatch(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("batch failed", "error", err, "retry_in", delay.current())
			if !p.wait(ctx, delay.next()) {
				break
			}
			continue
		}
		delay.reset()
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// runBatch reads one batch, resolves every request and publishes the results.
// Offsets are committed only after the results are published; unusable
// requests are committed immediately so they are not redelivered.
func (p *Pipeline) runBatch(ctx context.Context) error {
	start := p.clock.Now()

	requests, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if len(requests) == 0 {
		return nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(requests)))
	p.metrics.BatchSize.Observe(float64(len(requests)))

	results, resolved := p.resolve(ctx, requests)
	if len(results) == 0 {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, results); err != nil {
		return fmt.Errorf("publish %d results: %w", len(results), err)
	}
	p.metrics.MessagesProduced.Add(float64(len(results)))

	for _, raw := range resolved {
		p.commit(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	return nil
}

// resolve runs each request through the transformer, returning the results
// alongside the messages they came from.
func (p *Pipeline) resolve(ctx context.Context, requests []domain.RawEvent) ([]domain.LookupResult, []domain.RawEvent) {
	results := make([]domain.LookupResult, 0, len(requests))
	resolved := make([]domain.RawEvent, 0, len(requests))
	failed := 0

	for _, raw := range requests {
		res, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("unusable lookup request, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		if res.Status != domain.StatusOK {
			failed++
		}
		results = append(results, res)
		resolved = append(resolved, raw)
	}

	p.logger.Debug("batch resolved",
		"requests", len(requests),
		"results", len(results),
		"failed_lookups", failed,
	)
	return results, resolved
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// wait blocks for d on the pipeline clock. It reports false if ctx ends first.
func (p *Pipeline) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

// retryDelay doubles from min up to max between consecutive Kafka failures.
type retryDelay struct {
	min, max time.Duration
	cur      time.Duration
}

func (r *retryDelay) current() time.Duration {
	if r.cur == 0 {
		return r.min
	}
	return r.cur
}

// next returns the delay to wait now and advances to the following one.
func (r *retryDelay) next() time.Duration {
	d := r.current()
	r.cur = min(d*2, r.max)
	return d
}

func (r *retryDelay) reset() {
	r.cur = 0
}
