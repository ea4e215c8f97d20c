package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/oauth2"
)

func TestClassifyExchangeError(t *testing.T) {
	rejected := &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Body:     []byte(`{"error":"invalid_grant","code":"super-secret-code"}`),
	}
	connRefused := &url.Error{
		Op:  "Post",
		URL: "https://idp.example.com/token",
		Err: errors.New("connection refused"),
	}

	for name, tc := range map[string]struct {
		in   error
		want error
	}{
		"idp rejection": {rejected, auth.ErrIdPRejectedCode},
		"transport":     {connRefused, auth.ErrNetwork},
		"deadline":      {context.DeadlineExceeded, auth.ErrNetwork},
		"canceled":      {context.Canceled, auth.ErrNetwork},
		"anything else": {errors.New("unexpected body"), auth.ErrMalformedIdPResponse},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyExchangeError(tc.in), tc.want)
		})
	}
}

func TestClassifyExchangeError_NeverEchoesBody(t *testing.T) {
	rejected := &oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusBadRequest},
		Body:     []byte(`{"code":"super-secret-code"}`),
	}
	err := ClassifyExchangeError(rejected)
	assert.NotContains(t, err.Error(), "super-secret-code")
}

func TestExchangeWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	tok, err := ExchangeWithRetry(context.Background(),
		func(ctx context.Context) (*oauth2.Token, error) {
			calls++
			if calls < 2 {
				return nil, &url.Error{
					Op: "Post", URL: "https://idp.example.com/token",
					Err: errors.New("connection reset"),
				}
			}
			return &oauth2.Token{AccessToken: "at-1"}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)
	assert.Equal(t, 2, calls)
}

func TestExchangeWithRetry_TerminalFailureNotRetried(t *testing.T) {
	calls := 0
	_, err := ExchangeWithRetry(context.Background(),
		func(ctx context.Context) (*oauth2.Token, error) {
			calls++
			return nil, &oauth2.RetrieveError{
				Response: &http.Response{StatusCode: http.StatusBadRequest},
			}
		})
	assert.ErrorIs(t, err, auth.ErrIdPRejectedCode)
	assert.Equal(t, 1, calls)
}

func TestExchangeWithRetry_BoundedAttempts(t *testing.T) {
	calls := 0
	_, err := ExchangeWithRetry(context.Background(),
		func(ctx context.Context) (*oauth2.Token, error) {
			calls++
			return nil, &url.Error{
				Op: "Post", URL: "https://idp.example.com/token",
				Err: errors.New("connection refused"),
			}
		})
	assert.ErrorIs(t, err, auth.ErrNetwork)
	assert.Equal(t, exchangeAttempts, calls)
}
