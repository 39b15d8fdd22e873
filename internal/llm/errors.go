package llm

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/amendment-desk/internal/common"
)

// statusError classifies a non-200 provider response. Rate limits and server
// errors are retried; everything else is permanent.
func statusError(provider string, status int, body []byte) error {
	err := fmt.Errorf("%s API error (status %d): %s", provider, status, string(body))

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case status >= http.StatusInternalServerError:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return common.Permanent(err)
	}
}
