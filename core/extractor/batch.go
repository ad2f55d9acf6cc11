package extractor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fieldlens/fieldlens/core/model"
)

// DefaultBatchConcurrency bounds parallel provider calls during a batch run.
const DefaultBatchConcurrency = 4

// BatchItem is one input text in a batch extraction.
type BatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BatchResult pairs one item with its terminal outcome. Failures are isolated
// per item; one failing item never aborts the rest of the batch.
type BatchResult struct {
	ID      string
	Outcome *Outcome
}

// Batch runs the base request against every item's text in parallel, with at
// most concurrency calls in flight. Results are returned in item order.
// The base request's mode, examples or fields, provider, model and credential
// apply to every item.
func (e *Extractor) Batch(ctx context.Context, base *model.ExtractionRequest, items []BatchItem, concurrency int) []BatchResult {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(items))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for i, item := range items {
		group.Go(func() error {
			itemRequest := *base
			itemRequest.SourceText = item.Text
			outcome, _ := e.Submit(ctx, &itemRequest, nil)
			results[i] = BatchResult{ID: item.ID, Outcome: outcome}
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes completion.
	_ = group.Wait()

	return results
}
