package nws

import (
	"context"
	"io"
	"net/http"
	"time"
)

// doWithRetry executes the built request up to maxAttempts times with a
// fixed delay between failed attempts, returning the first ok response (any
// status below 400) together with the number of attempts actually made.
// When every attempt fails, the final response is returned with its body
// still open so the caller can classify the failure payload; bodies of
// non-final failed attempts are drained and closed. maxAttempts below 1 is
// clamped to 0: no request is made and all return values are zero.
func doWithRetry(
	ctx context.Context,
	client *http.Client,
	buildRequest func() (*http.Request, error),
	maxAttempts int,
	delay time.Duration,
) (*http.Response, int, error) {
	if maxAttempts < 1 {
		return nil, 0, nil
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, attempt - 1, err
		}
		req = req.WithContext(ctx)

		resp, err := client.Do(req)
		if err == nil && resp.StatusCode < 400 {
			return resp, attempt, nil
		}

		if attempt == maxAttempts {
			return resp, attempt, err
		}
		lastErr = err

		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		case <-timer.C:
		}
	}

	// Unreachable; the final attempt always returns above.
	return nil, maxAttempts, lastErr
}
