package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"golang.org/x/oauth2"
)

const (
	// exchangeAttempts bounds the code exchange including retries.
	// Authorization codes are single-use on the IdP side, so retrying
	// is only safe while no exchange has succeeded; a transport
	// failure before a response means the code is still unspent.
	exchangeAttempts = 3

	retryBaseDelay = 200 * time.Millisecond
)

// ExchangeWithRetry runs the code-for-token exchange, retrying
// transient transport failures a bounded number of times. Terminal
// failures (IdP rejection, timeout, context cancellation) are
// returned immediately, already classified.
func ExchangeWithRetry(
	ctx context.Context,
	exchange func(ctx context.Context) (*oauth2.Token, error),
) (*oauth2.Token, error) {
	var lastErr error
	for attempt := 0; attempt < exchangeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", auth.ErrNetwork, ctx.Err())
			case <-time.After(retryBaseDelay << (attempt - 1)):
			}
		}

		token, err := exchange(ctx)
		if err == nil {
			return token, nil
		}

		lastErr = ClassifyExchangeError(err)
		if !retryable(lastErr, err) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// ClassifyExchangeError maps a raw exchange failure onto the auth
// sentinels. Error text must not include the IdP response body, which
// can echo the authorization code back.
func ClassifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w (status %d)",
			auth.ErrIdPRejectedCode, retrieveErr.Response.StatusCode)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s %s", auth.ErrNetwork, urlErr.Op, urlErr.URL)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", auth.ErrNetwork, netErr)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", auth.ErrNetwork, err)
	}

	return fmt.Errorf("%w: %v", auth.ErrMalformedIdPResponse, err)
}

// retryable reports whether the exchange may be attempted again.
// Deadline and cancellation are excluded: a timeout after the request
// left the wire means the IdP may already have consumed the code.
func retryable(classified, raw error) bool {
	if !errors.Is(classified, auth.ErrNetwork) {
		return false
	}
	if errors.Is(raw, context.DeadlineExceeded) || errors.Is(raw, context.Canceled) {
		return false
	}
	return true
}
