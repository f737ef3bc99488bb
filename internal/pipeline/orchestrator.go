package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-contact-pipeline/internal/extract"
	"go-contact-pipeline/internal/model"
	"go-contact-pipeline/internal/transform"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Extractor fetches raw records from one upstream endpoint.
type Extractor interface {
	Fetch(ctx context.Context, endpoint string, timeout time.Duration) ([]model.RawRecord, error)
}

// Loader persists a batch of contacts with per-record outcomes.
type Loader interface {
	LoadBatch(ctx context.Context, contacts []model.Contact) []model.LoadResult
}

// Config holds the explicit, caller-configured bounds for a run.
type Config struct {
	ExtractTimeout     time.Duration // per-attempt extract bound
	MaxExtractAttempts int           // total attempts, transient failures only
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	RunTimeout         time.Duration // wall-clock bound across the whole run
	MaxBatchSize       int           // largest source batch accepted per run
	TransformWorkers   int
}

// DefaultConfig returns the bounds used when the service config leaves
// them unset.
func DefaultConfig() Config {
	return Config{
		ExtractTimeout:     10 * time.Second,
		MaxExtractAttempts: 3,
		InitialBackoff:     500 * time.Millisecond,
		MaxBackoff:         10 * time.Second,
		RunTimeout:         2 * time.Minute,
		MaxBatchSize:       10000,
		TransformWorkers:   4,
	}
}

// Orchestrator sequences Extract, Transform, and Load for one run and folds
// every stage's failures into a single outcome. Stages never overlap within
// a run: extraction completes before mapping starts, mapping completes
// before loading starts.
type Orchestrator struct {
	extractor Extractor
	loader    Loader
	cfg       Config
}

// New creates an orchestrator. Zero-valued config fields fall back to
// DefaultConfig.
func New(extractor Extractor, loader Loader, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = def.ExtractTimeout
	}
	if cfg.MaxExtractAttempts <= 0 {
		cfg.MaxExtractAttempts = def.MaxExtractAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = def.MaxBatchSize
	}
	if cfg.TransformWorkers <= 0 {
		cfg.TransformWorkers = def.TransformWorkers
	}
	return &Orchestrator{extractor: extractor, loader: loader, cfg: cfg}
}

// Run executes one pipeline run against sourceEndpoint. extractTimeout
// overrides the configured per-attempt bound when positive. The returned
// outcome is complete in every case: a total extraction failure aborts the
// run with exactly one Extract-stage error; mapping and load failures
// degrade the run to partial success instead of aborting it.
func (o *Orchestrator) Run(ctx context.Context, sourceEndpoint string, extractTimeout time.Duration) model.RunOutcome {
	requestID := uuid.New().String()
	start := time.Now().UTC()
	log.Printf("🚀 Starting pipeline run %s for %s", requestID, sourceEndpoint)

	if extractTimeout <= 0 {
		extractTimeout = o.cfg.ExtractTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	outcome := model.RunOutcome{
		RequestID: requestID,
		StartedAt: start,
		Errors:    []model.ErrorRecord{},
	}

	// --- EXTRACT ---
	raws, err := o.extractWithRetry(ctx, sourceEndpoint, extractTimeout)
	if err != nil {
		log.Printf("❌ Run %s aborted at extract: %v", requestID, err)
		outcome.State = model.StateAborted
		outcome.Errors = append(outcome.Errors, model.ErrorRecord{
			Stage:     model.StageExtract,
			Message:   err.Error(),
			Timestamp: time.Now().UTC(),
		})
		outcome.FinishedAt = time.Now().UTC()
		return outcome
	}
	outcome.ExtractedCount = len(raws)
	log.Printf("➡️ Run %s extracted %d records", requestID, len(raws))

	// --- TRANSFORM ---
	contacts, transformErrs := o.transformAll(ctx, raws)
	outcome.TransformedCount = len(contacts)
	outcome.Errors = append(outcome.Errors, transformErrs...)
	log.Printf("🔄 Run %s transformed %d records (%d mapping failures)",
		requestID, len(contacts), len(transformErrs))

	// --- LOAD ---
	results := o.loader.LoadBatch(ctx, contacts)
	for _, res := range results {
		if res.Status == model.LoadSuccess {
			outcome.LoadedCount++
			continue
		}
		outcome.Errors = append(outcome.Errors, model.ErrorRecord{
			Stage:     model.StageLoad,
			Message:   fmt.Sprintf("loading %s: %s", res.Record.Email, res.ErrorDetail),
			Timestamp: time.Now().UTC(),
		})
	}

	outcome.State = model.StateCompleted
	outcome.FailedCount = len(outcome.Errors)
	outcome.FinishedAt = time.Now().UTC()
	log.Printf("🏁 Run %s completed: %d loaded, %d failed in %v",
		requestID, outcome.LoadedCount, outcome.FailedCount, outcome.FinishedAt.Sub(start))
	return outcome
}

// extractWithRetry calls the source client up to MaxExtractAttempts times.
// Only transient failures (timeout, connection failure, 5xx) are retried,
// with exponential backoff; permanent failures (4xx, malformed body) fail
// fast. A batch larger than MaxBatchSize is rejected as a permanent
// extraction failure.
func (o *Orchestrator) extractWithRetry(ctx context.Context, endpoint string, timeout time.Duration) ([]model.RawRecord, error) {
	var lastErr error
	delay := o.cfg.InitialBackoff

	for attempt := 1; attempt <= o.cfg.MaxExtractAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("🔁 Extract retry %d/%d for %s after %v", attempt, o.cfg.MaxExtractAttempts, endpoint, delay)
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, fmt.Errorf("extract: run cancelled while waiting to retry: %w", ctx.Err())
			case <-t.C:
			}
			delay *= 2
			if delay > o.cfg.MaxBackoff {
				delay = o.cfg.MaxBackoff
			}
		}

		raws, err := o.extractor.Fetch(ctx, endpoint, timeout)
		if err == nil {
			if len(raws) > o.cfg.MaxBatchSize {
				return nil, fmt.Errorf("extract: source returned %d records, exceeds max batch size %d",
					len(raws), o.cfg.MaxBatchSize)
			}
			return raws, nil
		}

		lastErr = err
		if !extract.IsTransient(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("extract: giving up after %d attempts: %w", o.cfg.MaxExtractAttempts, lastErr)
}

// transformAll maps every raw record independently. Mapping is pure, so
// records are mapped in parallel, but both the contact sequence and the
// error sequence preserve extraction order for index-correlated reporting.
// One bad record never blocks the rest.
func (o *Orchestrator) transformAll(ctx context.Context, raws []model.RawRecord) ([]model.Contact, []model.ErrorRecord) {
	mapped := make([]model.Contact, len(raws))
	mapErrs := make([]error, len(raws))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.TransformWorkers)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			mapped[i], mapErrs[i] = transform.MapContact(raw)
			return nil
		})
	}
	g.Wait()

	contacts := make([]model.Contact, 0, len(raws))
	var errs []model.ErrorRecord
	for i, raw := range raws {
		if mapErrs[i] != nil {
			errs = append(errs, model.ErrorRecord{
				Stage:     model.StageTransform,
				Message:   mapErrs[i].Error(),
				Raw:       raw,
				Timestamp: time.Now().UTC(),
			})
			continue
		}
		contacts = append(contacts, mapped[i])
	}
	return contacts, errs
}
