package extractor

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// Retry policy defaults, matching the usual backoff for throttled providers.
const (
	DefaultRetryAttempts = 3
	defaultRetryDelay    = 2 * time.Second
)

// SubmitWithRetry wraps Submit with exponential backoff on rate-limit and
// availability errors. Retries are strictly a caller-level policy layered on
// top of the pipeline; the pipeline itself never retries. Attempts <= 0 uses
// DefaultRetryAttempts. Extra retry options are applied after the defaults.
func (e *Extractor) SubmitWithRetry(ctx context.Context, request *model.ExtractionRequest, onProgress ProgressFunc, attempts int, opts ...retry.Option) (*Outcome, error) {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	options := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(defaultRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	}
	options = append(options, opts...)

	var outcome *Outcome
	err := retry.Do(
		func() error {
			var submitErr error
			outcome, submitErr = e.Submit(ctx, request, onProgress)
			return submitErr
		},
		options...,
	)
	if err != nil {
		return outcome, err
	}
	return outcome, nil
}

// isRetryable allows retries only for transient provider conditions.
// Validation errors, auth failures and cancellation surface immediately.
func isRetryable(err error) bool {
	providerErr, ok := ai.AsProviderError(err)
	if !ok {
		return false
	}
	return providerErr.Kind == ai.ErrRateLimited || providerErr.Kind == ai.ErrUnavailable
}
