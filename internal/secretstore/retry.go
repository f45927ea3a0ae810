package secretstore

import (
	"context"
	"errors"
	"strings"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

const (
	// baseCooldown is the first wait after a throttled call.
	baseCooldown = 100 * time.Millisecond
	// maxCooldown caps the exponential backoff.
	maxCooldown = 3200 * time.Millisecond
)

// isThrottle reports whether err is a request-rate rejection from the
// store. Everything else is treated as a real failure and surfaced.
func isThrottle(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException", "RequestLimitExceeded", "SlowDown":
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 429:
			return true
		case 400, 503:
			// Some throttle responses arrive as generic client or
			// availability errors with a throttling code in the body.
			msg := err.Error()
			return strings.Contains(msg, "Throttling") ||
				strings.Contains(msg, "TooManyRequests") ||
				strings.Contains(msg, "SlowDown")
		}
	}

	return false
}

// withRetry runs call until it succeeds or fails with a non-throttle
// error. Throttles are retried for as long as the context allows; the
// invocation deadline, not a retry count, bounds the loop.
func withRetry[T any](ctx context.Context, g *AWSGateway, operation string, call func() (T, error)) (T, error) {
	var zero T
	cooldown := baseCooldown
	for {
		out, err := call()
		if err == nil {
			return out, nil
		}
		if !isThrottle(err) {
			return zero, err
		}

		g.logger.Warn("Cooling down to prevent request limits (%s, waiting %s)", operation, cooldown)
		g.metrics.RecordStoreCooldown(operation)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cooldown):
		}

		if cooldown < maxCooldown {
			cooldown *= 2
		}
	}
}
