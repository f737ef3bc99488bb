package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-contact-pipeline/internal/extract"
	"go-contact-pipeline/internal/load"
	"go-contact-pipeline/internal/model"
	"go-contact-pipeline/internal/pipeline"
	"go-contact-pipeline/internal/store"
)

// fakeLoader records batches and fails the configured emails.
type fakeLoader struct {
	failOn  map[string]bool
	batches [][]model.Contact
}

func (f *fakeLoader) LoadBatch(ctx context.Context, contacts []model.Contact) []model.LoadResult {
	f.batches = append(f.batches, contacts)
	results := make([]model.LoadResult, len(contacts))
	for i, c := range contacts {
		if f.failOn[c.Email] {
			results[i] = model.LoadResult{Record: c, Status: model.LoadFailed, ErrorDetail: "store unavailable"}
		} else {
			results[i] = model.LoadResult{Record: c, Status: model.LoadSuccess}
		}
	}
	return results
}

func fastConfig() pipeline.Config {
	return pipeline.Config{
		ExtractTimeout:     time.Second,
		MaxExtractAttempts: 3,
		InitialBackoff:     time.Millisecond,
		MaxBackoff:         5 * time.Millisecond,
		RunTimeout:         5 * time.Second,
	}
}

func sourceReturning(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestRunAllRecordsSucceed(t *testing.T) {
	src := sourceReturning(`[
		{"firstName":"A","lastName":"B","email":"a@b.com"},
		{"firstName":"C","lastName":"D","email":"c@d.com"}
	]`)
	defer src.Close()

	loader := &fakeLoader{}
	orch := pipeline.New(extract.NewClient(), loader, fastConfig())

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateCompleted, outcome.State)
	require.Equal(t, 2, outcome.ExtractedCount)
	require.Equal(t, 2, outcome.TransformedCount)
	require.Equal(t, 2, outcome.LoadedCount)
	require.Zero(t, outcome.FailedCount)
	require.Empty(t, outcome.Errors)
	require.NotEmpty(t, outcome.RequestID)
}

func TestRunPartialMappingFailure(t *testing.T) {
	src := sourceReturning(`[{"firstName":"A","lastName":"B","email":"a@b.com"},{"firstName":"C"}]`)
	defer src.Close()

	loader := &fakeLoader{}
	orch := pipeline.New(extract.NewClient(), loader, fastConfig())

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateCompleted, outcome.State)
	require.Equal(t, 2, outcome.ExtractedCount)
	require.Equal(t, 1, outcome.TransformedCount)
	require.Equal(t, 1, outcome.LoadedCount)
	require.Equal(t, 1, outcome.FailedCount)

	require.Len(t, outcome.Errors, 1)
	require.Equal(t, model.StageTransform, outcome.Errors[0].Stage)
	require.Contains(t, outcome.Errors[0].Message, "lastName")
	require.Equal(t, "C", outcome.Errors[0].Raw["firstName"])

	// One bad record must not block the rest from loading.
	require.Len(t, loader.batches, 1)
	require.Len(t, loader.batches[0], 1)
	require.Equal(t, "a@b.com", loader.batches[0][0].Email)
}

func TestRunLoadFailuresDegradeNotAbort(t *testing.T) {
	src := sourceReturning(`[
		{"firstName":"A","lastName":"B","email":"a@b.com"},
		{"firstName":"C","lastName":"D","email":"c@d.com"}
	]`)
	defer src.Close()

	loader := &fakeLoader{failOn: map[string]bool{"c@d.com": true}}
	orch := pipeline.New(extract.NewClient(), loader, fastConfig())

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateCompleted, outcome.State)
	require.Equal(t, 1, outcome.LoadedCount)
	require.Equal(t, 1, outcome.FailedCount)
	require.Len(t, outcome.Errors, 1)
	require.Equal(t, model.StageLoad, outcome.Errors[0].Stage)
	require.Contains(t, outcome.Errors[0].Message, "c@d.com")
}

func TestRunErrorsAreStageOrdered(t *testing.T) {
	src := sourceReturning(`[
		{"firstName":"A","lastName":"B","email":"a@b.com"},
		{"firstName":"NoEmail","lastName":"X"},
		{"firstName":"C","lastName":"D","email":"c@d.com"}
	]`)
	defer src.Close()

	loader := &fakeLoader{failOn: map[string]bool{"a@b.com": true}}
	orch := pipeline.New(extract.NewClient(), loader, fastConfig())

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Len(t, outcome.Errors, 2)
	require.Equal(t, model.StageTransform, outcome.Errors[0].Stage)
	require.Equal(t, model.StageLoad, outcome.Errors[1].Stage)
}

func TestRunAbortsOnServerErrorAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer src.Close()

	loader := &fakeLoader{}
	orch := pipeline.New(extract.NewClient(), loader, fastConfig())

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateAborted, outcome.State)
	require.Zero(t, outcome.ExtractedCount)
	require.Len(t, outcome.Errors, 1)
	require.Equal(t, model.StageExtract, outcome.Errors[0].Stage)
	require.Equal(t, int32(3), attempts.Load(), "transient failures retry up to the attempt bound")
	require.Empty(t, loader.batches, "load must never run after an aborted extract")
}

func TestRunFailsFastOnClientError(t *testing.T) {
	var attempts atomic.Int32
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "no such collection", http.StatusNotFound)
	}))
	defer src.Close()

	orch := pipeline.New(extract.NewClient(), &fakeLoader{}, fastConfig())
	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateAborted, outcome.State)
	require.Equal(t, int32(1), attempts.Load(), "permanent failures must not retry")
	require.Contains(t, outcome.Errors[0].Message, "404")
}

func TestRunRejectsOversizedBatch(t *testing.T) {
	src := sourceReturning(`[
		{"firstName":"A","lastName":"B","email":"a@b.com"},
		{"firstName":"C","lastName":"D","email":"c@d.com"}
	]`)
	defer src.Close()

	cfg := fastConfig()
	cfg.MaxBatchSize = 1
	orch := pipeline.New(extract.NewClient(), &fakeLoader{}, cfg)

	outcome := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, model.StateAborted, outcome.State)
	require.Contains(t, outcome.Errors[0].Message, "max batch size")
}

// slowUpserter blocks each write until the context expires.
type slowUpserter struct {
	delay time.Duration
}

func (s *slowUpserter) UpsertContact(ctx context.Context, c model.Contact) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}

func TestRunTimeoutReportsUnattemptedRecords(t *testing.T) {
	src := sourceReturning(`[
		{"firstName":"A","lastName":"B","email":"a@b.com"},
		{"firstName":"C","lastName":"D","email":"c@d.com"},
		{"firstName":"E","lastName":"F","email":"e@f.com"}
	]`)
	defer src.Close()

	cfg := fastConfig()
	cfg.RunTimeout = 100 * time.Millisecond
	sink := load.NewSink(&slowUpserter{delay: time.Second}, 1)
	orch := pipeline.New(extract.NewClient(), sink, cfg)

	outcome := orch.Run(context.Background(), src.URL, 0)

	// The run degrades to a partial outcome instead of vanishing: every
	// record the sink never reached is reported, not dropped.
	require.Equal(t, model.StateCompleted, outcome.State)
	require.Equal(t, 3, outcome.ExtractedCount)
	require.Equal(t, 3, outcome.TransformedCount)
	require.Zero(t, outcome.LoadedCount)
	require.Equal(t, 3, outcome.FailedCount)

	require.Len(t, outcome.Errors, 3)
	for _, e := range outcome.Errors {
		require.Equal(t, model.StageLoad, e.Stage)
		require.Contains(t, e.Message, "pipeline timeout")
	}
}

func TestRunRerunIsIdempotent(t *testing.T) {
	src := sourceReturning(`[{"firstName":"Ada","lastName":"Lovelace","email":"ada@x.com"}]`)
	defer src.Close()

	st, err := store.Open(filepath.Join(t.TempDir(), "rerun.db"))
	require.NoError(t, err)
	defer st.Close()

	orch := pipeline.New(extract.NewClient(), load.NewSink(st, 2), fastConfig())

	first := orch.Run(context.Background(), src.URL, 0)
	second := orch.Run(context.Background(), src.URL, 0)

	require.Equal(t, first.LoadedCount, second.LoadedCount)
	require.Zero(t, second.FailedCount)

	n, err := st.CountContacts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n, "re-running an unchanged source must not create duplicates")
}
