package load

import (
	"context"

	"go-contact-pipeline/internal/model"

	"golang.org/x/sync/errgroup"
)

// Upserter is the narrow store contract required by the sink.
type Upserter interface {
	UpsertContact(ctx context.Context, c model.Contact) error
}

// Sink persists canonical contacts with best-effort batch semantics: one
// result per submitted record, failures captured per record, never
// all-or-nothing. Idempotence comes from the store's upsert-by-email.
type Sink struct {
	store       Upserter
	concurrency int
}

// NewSink creates a sink with the given per-record write concurrency bound.
func NewSink(store Upserter, concurrency int) *Sink {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sink{store: store, concurrency: concurrency}
}

// LoadBatch attempts to persist every contact and returns exactly one
// result per input, in input order, regardless of completion order.
// A failure on one record does not prevent attempting the rest. When the
// context expires mid-batch, records not yet attempted are reported as
// failed with a pipeline timeout detail instead of being dropped.
func (s *Sink) LoadBatch(ctx context.Context, contacts []model.Contact) []model.LoadResult {
	results := make([]model.LoadResult, len(contacts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, c := range contacts {
		i, c := i, c
		// Each goroutine owns results[i]; no shared writes.
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = model.LoadResult{
					Record:      c,
					Status:      model.LoadFailed,
					ErrorDetail: "pipeline timeout",
				}
				return nil
			}

			if err := s.store.UpsertContact(gctx, c); err != nil {
				detail := err.Error()
				if gctx.Err() != nil {
					detail = "pipeline timeout"
				}
				results[i] = model.LoadResult{Record: c, Status: model.LoadFailed, ErrorDetail: detail}
				return nil
			}

			results[i] = model.LoadResult{Record: c, Status: model.LoadSuccess}
			return nil
		})
	}

	g.Wait() // workers never return errors; failures live in results
	return results
}
