package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/logging"
	"reelmatch/internal/ratings"
	"reelmatch/internal/reconcile"
	"reelmatch/internal/retry"
	"reelmatch/internal/services"
)

// ErrBudgetExceeded marks a run aborted because failures crossed the error
// budget. It is the only pipeline-fatal condition.
var ErrBudgetExceeded = errors.New("error budget exceeded")

const (
	// DefaultBatchSize is the batch width for normal runs.
	DefaultBatchSize = 10
	// DefaultMaxErrorFraction is the failed-item fraction tolerated before
	// the run aborts.
	DefaultMaxErrorFraction = 0.3
	// DefaultMaxRetriesPerItem bounds attempts per candidate.
	DefaultMaxRetriesPerItem = 3
	// DefaultRetryDelay is the fixed pause between attempts on one item.
	DefaultRetryDelay = time.Second
	// DefaultBatchDelay is the courtesy pause between batches.
	DefaultBatchDelay = time.Second
	// DefaultSmallRunThreshold is the item count at or below which the batch
	// width shrinks so progress increments stay visible.
	DefaultSmallRunThreshold = 20
	// DefaultSmallRunBatchSize is the forced batch width for small runs.
	DefaultSmallRunBatchSize = 5
)

// Resolver resolves one candidate into ranked matches.
type Resolver interface {
	Resolve(ctx context.Context, cand reconcile.Candidate) ([]reconcile.Match, error)
}

// Job describes one ingestion run. Zero fields take package defaults; a
// negative delay disables the pause.
type Job struct {
	RunID             string
	Items             []reconcile.Candidate
	BatchSize         int
	MaxErrorFraction  float64
	MaxRetriesPerItem int
	RetryDelay        time.Duration
	BatchDelay        time.Duration
	MaxRating         string
	SmallRunThreshold int
	SmallRunBatchSize int
}

func (j Job) normalized() Job {
	if j.BatchSize <= 0 {
		j.BatchSize = DefaultBatchSize
	}
	if j.MaxErrorFraction <= 0 || j.MaxErrorFraction > 1 {
		j.MaxErrorFraction = DefaultMaxErrorFraction
	}
	if j.MaxRetriesPerItem <= 0 {
		j.MaxRetriesPerItem = DefaultMaxRetriesPerItem
	}
	if j.RetryDelay == 0 {
		j.RetryDelay = DefaultRetryDelay
	}
	if j.BatchDelay == 0 {
		j.BatchDelay = DefaultBatchDelay
	}
	if j.SmallRunThreshold <= 0 {
		j.SmallRunThreshold = DefaultSmallRunThreshold
	}
	if j.SmallRunBatchSize <= 0 {
		j.SmallRunBatchSize = DefaultSmallRunBatchSize
	}
	if len(j.Items) <= j.SmallRunThreshold {
		j.BatchSize = j.SmallRunBatchSize
	}
	return j
}

// errorBudget is the failed-item count tolerated before aborting.
func (j Job) errorBudget() int {
	return int(math.Ceil(float64(len(j.Items)) * j.MaxErrorFraction))
}

// Outcome classifies one item's terminal disposition within a run.
type Outcome string

const (
	// OutcomeAccepted means the item resolved and its entry joined the
	// run's result set.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDuplicate means the item resolved to an entry another item
	// already contributed.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeFiltered means the item resolved but its rating is outside the
	// run's ceiling.
	OutcomeFiltered Outcome = "filtered"
	// OutcomeNoMatch means both reconciliation strategies exhausted without
	// a candidate.
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeError means attempts were exhausted by transient failures.
	OutcomeError Outcome = "error"
)

// ItemResult records how one candidate fared. Accepted results carry the
// resolved entry; only accepted results appear at most once per catalog id.
type ItemResult struct {
	Candidate  reconcile.Candidate `json:"candidate"`
	Entry      *catalog.Entry      `json:"entry,omitempty"`
	Similarity float64             `json:"similarity,omitempty"`
	Tier       reconcile.Tier      `json:"tier,omitempty"`
	Outcome    Outcome             `json:"outcome"`
	Detail     string              `json:"detail,omitempty"`
}

// Failed reports whether the item counted against the error budget.
func (r ItemResult) Failed() bool {
	return r.Outcome == OutcomeNoMatch || r.Outcome == OutcomeError
}

// Orchestrator runs one batch job to a terminal state, feeding the tracker
// at every batch boundary.
type Orchestrator struct {
	resolver    Resolver
	tracker     *Tracker
	logger      *slog.Logger
	continueRun func() bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithContinueFlag installs the polled continue flag. Returning false stops
// the run at the next batch boundary.
func WithContinueFlag(fn func() bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.continueRun = fn
	}
}

// NewOrchestrator constructs an orchestrator over the supplied resolver and
// tracker.
func NewOrchestrator(resolver Resolver, tracker *Tracker, logger *slog.Logger, opts ...OrchestratorOption) (*Orchestrator, error) {
	if resolver == nil {
		return nil, errors.New("ingest: resolver required")
	}
	if tracker == nil {
		return nil, errors.New("ingest: tracker required")
	}
	orch := &Orchestrator{
		resolver: resolver,
		tracker:  tracker,
		logger:   logging.NewComponentLogger(logger, "ingest"),
	}
	for _, opt := range opts {
		opt(orch)
	}
	return orch, nil
}

type itemOutcome struct {
	matches []reconcile.Match
	err     error
}

// Run processes the job to a terminal state and returns the final status
// with the per-item results. One batch is in flight at a time; counters
// move strictly in batch order. A budget abort returns ErrBudgetExceeded
// alongside the Aborted status and the partial results.
func (o *Orchestrator) Run(ctx context.Context, job Job) (Status, []ItemResult, error) {
	if len(job.Items) == 0 {
		return o.tracker.Snapshot(), nil, services.Wrap(services.ErrValidation, "ingest", "run", "no candidates", nil)
	}
	job = job.normalized()

	runCtx := services.WithRunID(ctx, job.RunID)
	logger := o.logger.With(logging.String("run_id", job.RunID))

	total := len(job.Items)
	batches := partition(job.Items, job.BatchSize)
	budget := job.errorBudget()
	allowed := ratings.SetFor(job.MaxRating)

	o.tracker.StartRun(job.RunID, total)
	o.tracker.RecordBatch(0, 0, fmt.Sprintf("starting: %d items in %d batches of up to %d", total, len(batches), job.BatchSize))
	logger.Info("run started",
		logging.Int("total", total),
		logging.Int("batches", len(batches)),
		logging.Int("batch_size", job.BatchSize),
		logging.Int("error_budget", budget))

	results := make([]ItemResult, 0, total)
	seen := make(map[int64]struct{}, total)
	totalFailed := 0

	for batchNo, batch := range batches {
		if err := runCtx.Err(); err != nil {
			o.tracker.Finish(StateFailed, "cancelled")
			logger.Warn("run cancelled", logging.Error(err))
			return o.tracker.Snapshot(), results, err
		}
		if o.continueRun != nil && !o.continueRun() {
			o.tracker.Finish(StateAborted, "stopping: run stopped before remaining batches")
			logger.Info("run stopped", logging.Int("processed", len(results)))
			return o.tracker.Snapshot(), results, nil
		}

		batchCtx := services.WithBatch(runCtx, batchNo+1)
		outcomes := o.processBatch(batchCtx, job, batch)

		batchResults, successes, failures := o.foldBatch(batch, outcomes, allowed, seen)
		results = append(results, batchResults...)
		totalFailed += failures

		lines := batchLogLines(batchResults)
		lines = append(lines, fmt.Sprintf("batch %d/%d: %d resolved, %d failed", batchNo+1, len(batches), successes, failures))
		o.tracker.RecordBatch(successes, failures, lines...)
		logger.Info("batch finished",
			logging.Int("batch", batchNo+1),
			logging.Int("resolved", successes),
			logging.Int("failed", failures))

		if totalFailed > budget {
			line := fmt.Sprintf("error budget exceeded: %d failed, %d tolerated", totalFailed, budget)
			o.tracker.Finish(StateAborted, line)
			logger.Error("run aborted",
				logging.Int("failed", totalFailed),
				logging.Int("budget", budget),
				logging.String(logging.FieldErrorHint, "check catalog service availability"))
			return o.tracker.Snapshot(), results, fmt.Errorf("%w: %d failed, %d tolerated", ErrBudgetExceeded, totalFailed, budget)
		}

		if batchNo < len(batches)-1 && job.BatchDelay > 0 {
			select {
			case <-runCtx.Done():
			case <-time.After(job.BatchDelay):
			}
		}
	}

	accepted := 0
	for _, result := range results {
		if result.Outcome == OutcomeAccepted {
			accepted++
		}
	}
	o.tracker.Finish(StateCompleted, fmt.Sprintf("completed: %d accepted, %d failed of %d", accepted, totalFailed, total))
	logger.Info("run completed",
		logging.Int("accepted", accepted),
		logging.Int("failed", totalFailed),
		logging.Int("total", total))
	return o.tracker.Snapshot(), results, nil
}

// processBatch fans the batch out and joins before returning; outcomes are
// indexed by the batch's item order.
func (o *Orchestrator) processBatch(ctx context.Context, job Job, batch []reconcile.Candidate) []itemOutcome {
	outcomes := make([]itemOutcome, len(batch))
	var wg sync.WaitGroup
	wg.Add(len(batch))
	for i, cand := range batch {
		go func(i int, cand reconcile.Candidate) {
			defer wg.Done()
			matches, err := o.resolveItem(ctx, job, cand)
			outcomes[i] = itemOutcome{matches: matches, err: err}
		}(i, cand)
	}
	wg.Wait()
	return outcomes
}

func (o *Orchestrator) resolveItem(ctx context.Context, job Job, cand reconcile.Candidate) ([]reconcile.Match, error) {
	policy := retry.Fixed(job.MaxRetriesPerItem, job.RetryDelay)
	policy.Retryable = services.Retryable

	var matches []reconcile.Match
	err := retry.Do(ctx, policy, fmt.Sprintf("resolve %q", cand.Title), func(ctx context.Context) error {
		found, err := o.resolver.Resolve(ctx, cand)
		if err != nil {
			return err
		}
		matches = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// foldBatch converts raw outcomes into results in item-submission order, so
// deduplication is deterministic: the first item to resolve an id keeps it.
func (o *Orchestrator) foldBatch(batch []reconcile.Candidate, outcomes []itemOutcome, allowed ratings.Set, seen map[int64]struct{}) ([]ItemResult, int, int) {
	results := make([]ItemResult, 0, len(batch))
	successes, failures := 0, 0
	for i, cand := range batch {
		outcome := outcomes[i]
		result := ItemResult{Candidate: cand}
		switch {
		case outcome.err != nil:
			failures++
			if errors.Is(outcome.err, reconcile.ErrNoMatch) {
				result.Outcome = OutcomeNoMatch
				result.Detail = "no match"
			} else {
				result.Outcome = OutcomeError
				result.Detail = outcome.err.Error()
			}
		default:
			successes++
			best := outcome.matches[0]
			entry := best.Entry
			result.Entry = &entry
			result.Similarity = best.Similarity
			result.Tier = best.Tier
			switch {
			case !allowed.Allows(entry.Rating):
				result.Outcome = OutcomeFiltered
				result.Detail = fmt.Sprintf("rating %s outside ceiling", entry.Rating)
			case contains(seen, entry.ID):
				result.Outcome = OutcomeDuplicate
				result.Detail = fmt.Sprintf("already resolved as catalog id %d", entry.ID)
			default:
				result.Outcome = OutcomeAccepted
				seen[entry.ID] = struct{}{}
			}
		}
		o.logItem(result)
		results = append(results, result)
	}
	return results, successes, failures
}

func (o *Orchestrator) logItem(result ItemResult) {
	attrs := []any{
		logging.String("title", result.Candidate.Title),
		logging.String("outcome", string(result.Outcome)),
	}
	if result.Entry != nil {
		attrs = append(attrs,
			logging.Int64("catalog_id", result.Entry.ID),
			logging.Float64("similarity", result.Similarity))
	}
	if result.Failed() {
		attrs = append(attrs, logging.String("detail", result.Detail))
		o.logger.Warn("item failed", attrs...)
		return
	}
	o.logger.Debug("item resolved", attrs...)
}

// batchLogLines renders the per-item status lines fed to the tracker;
// accepted items stay quiet to keep the tail useful.
func batchLogLines(results []ItemResult) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		switch result.Outcome {
		case OutcomeAccepted:
			continue
		case OutcomeNoMatch, OutcomeError:
			lines = append(lines, fmt.Sprintf("%q failed: %s", result.Candidate.Title, result.Detail))
		default:
			lines = append(lines, fmt.Sprintf("%q skipped: %s", result.Candidate.Title, result.Detail))
		}
	}
	return lines
}

func partition(items []reconcile.Candidate, size int) [][]reconcile.Candidate {
	batches := make([][]reconcile.Candidate, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}

func contains(seen map[int64]struct{}, id int64) bool {
	_, ok := seen[id]
	return ok
}
