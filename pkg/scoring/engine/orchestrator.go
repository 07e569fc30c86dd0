// Package engine implements the batch scoring orchestrator: chunking,
// admission control, retry with jittered backoff, and aggregation of
// per-chunk outcomes into one ordered result list with run metrics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/limits"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/validate"
	"go.uber.org/zap"
)

// Invoker sends one chunk's scoring request to the external inference
// service. It must honor ctx and surface its own timeout as an error that
// classifies to api_timeout rather than blocking indefinitely.
type Invoker interface {
	Invoke(ctx context.Context, settings core.Settings, prospects []core.Prospect) (core.ModelReply, error)
}

// Options configures one orchestrator.
type Options struct {
	// ChunkSize is the maximum number of prospects per model call.
	ChunkSize int
	// RequestTimeout bounds each individual model call.
	RequestTimeout time.Duration
	Retry          RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = 20
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	return o
}

// Orchestrator drives batches of prospects through the inference service.
// The limiter and gate are shared state passed in at construction; an
// Orchestrator itself is cheap and safe to build per request around them.
type Orchestrator struct {
	client    Invoker
	limiter   *limits.RateLimiter
	gate      *limits.ConcurrencyGate
	validator *validate.Validator
	opts      Options
	log       *zap.Logger
}

func New(client Invoker, limiter *limits.RateLimiter, gate *limits.ConcurrencyGate, opts Options, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		client:    client,
		limiter:   limiter,
		gate:      gate,
		validator: validate.New(log),
		opts:      opts.withDefaults(),
		log:       log,
	}
}

// Score scores all prospects against settings and returns one result per
// prospect in input order, plus run metrics. Partial failures never surface
// as an error; they become fallback results and metric counts. The only
// error case is a structurally invalid input collection.
func (o *Orchestrator) Score(ctx context.Context, settings core.Settings, prospects []core.Prospect) ([]core.ScoringResult, core.RunMetrics, error) {
	normalized, err := normalizeProspects(prospects)
	if err != nil {
		return nil, core.RunMetrics{}, err
	}

	start := time.Now()
	chunks, err := Split(normalized, o.opts.ChunkSize)
	if err != nil {
		return nil, core.RunMetrics{}, err
	}

	// One goroutine per chunk; each writes only its own outcome slot, so the
	// only contended state is inside the limiter and the gate.
	outcomes := make([]chunkOutcome, len(chunks))
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = o.processChunk(ctx, settings, chunks[i])
		}(i)
	}
	wg.Wait()

	results := make([]core.ScoringResult, 0, len(normalized))
	metrics := core.RunMetrics{
		Count:       len(normalized),
		ErrorCounts: make(map[core.Category]int),
	}
	for _, oc := range outcomes {
		results = append(results, oc.results...)
		metrics.OK += oc.ok
		metrics.Retries += oc.retries
		if oc.failure != "" {
			metrics.ErrorCounts[oc.failure]++
		}
	}
	if metrics.Count > 0 {
		metrics.OKShare = float64(metrics.OK) / float64(metrics.Count)
	}
	metrics.Latency = time.Since(start)

	o.log.Info("scoring run complete",
		zap.Int("count", metrics.Count),
		zap.Int("ok", metrics.OK),
		zap.Int("retries", metrics.Retries),
		zap.Duration("latency", metrics.Latency),
	)
	return results, metrics, nil
}

type chunkOutcome struct {
	results []core.ScoringResult
	ok      int
	retries int
	// failure is the terminal category when the whole chunk fell back.
	failure core.Category
}

func (o *Orchestrator) processChunk(ctx context.Context, settings core.Settings, ch Chunk) chunkOutcome {
	// A chunk that never started must not consume gate or limiter budget.
	if ctx.Err() != nil {
		return o.abandon(ch, ctx.Err(), 0)
	}
	if err := o.gate.Acquire(ctx); err != nil {
		return o.abandon(ch, err, 0)
	}
	defer o.gate.Release()

	retries := 0
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			retries++
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return o.abandon(ch, err, retries)
		}

		reqCtx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
		reply, err := o.client.Invoke(reqCtx, settings, ch.Prospects)
		cancel()

		if err == nil {
			results, ok, verr := o.validator.Reply(ch.Prospects, reply.Text)
			if verr == nil {
				o.log.Debug("chunk scored",
					zap.Int("chunk", ch.Index),
					zap.Int("prospects", len(ch.Prospects)),
					zap.Int("ok", ok),
					zap.Duration("model_latency", reply.Latency),
				)
				return chunkOutcome{results: results, ok: ok, retries: retries}
			}
			err = verr
		}

		if ctx.Err() != nil {
			return o.abandon(ch, ctx.Err(), retries)
		}

		cat := core.Classify(err)
		if !o.opts.Retry.Decide(cat, attempt) {
			o.log.Warn("chunk failed",
				zap.Int("chunk", ch.Index),
				zap.String("category", string(cat)),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return chunkOutcome{
				results: o.validator.Fallback(ch.Prospects, cat),
				retries: retries,
				failure: cat,
			}
		}

		delay := o.opts.Retry.Backoff(attempt)
		o.log.Debug("chunk retry scheduled",
			zap.Int("chunk", ch.Index),
			zap.String("category", string(cat)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
		)
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return o.abandon(ch, ctx.Err(), retries)
		}
	}
}

// abandon resolves a chunk that was cancelled or timed out at the run level
// into chunk-level fallback results.
func (o *Orchestrator) abandon(ch Chunk, err error, retries int) chunkOutcome {
	cat := core.CategoryAPIFailure
	if errors.Is(err, context.DeadlineExceeded) {
		cat = core.CategoryAPITimeout
	}
	return chunkOutcome{
		results: o.validator.Fallback(ch.Prospects, cat),
		retries: retries,
		failure: cat,
	}
}

// normalizeProspects assigns auto-<pos> ids to prospects missing one and
// deduplicates repeated ids keeping the first occurrence. The whole call is
// rejected only when no prospect carries an id at all.
func normalizeProspects(prospects []core.Prospect) ([]core.Prospect, error) {
	if len(prospects) == 0 {
		return nil, nil
	}

	anyID := false
	for _, p := range prospects {
		if p.ID != "" {
			anyID = true
			break
		}
	}
	if !anyID {
		return nil, fmt.Errorf("%w: no prospect carries an id", core.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(prospects))
	out := make([]core.Prospect, 0, len(prospects))
	for i, p := range prospects {
		if p.ID == "" {
			p.ID = fmt.Sprintf("auto-%d", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
