// Package resilience retries transient failures with exponential backoff.
//
// It is used by readers that fetch sample payloads from remote storage:
//
//	data, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() ([]byte, error) {
//	    return client.Download(ctx, key)
//	})
//
// By default only errors flagged retryable (see errors.IsRetryable) and
// plain errors are retried; context cancellation never is.
package resilience
