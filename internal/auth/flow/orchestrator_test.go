package flow

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/state"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCode = "valid-code"

// stubProvider plays the IdP side of the handshake in-process.
type stubProvider struct {
	exchangeCalls atomic.Int64
	exchangeErr   error
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) AuthCodeURL(stateValue, codeChallenge string) string {
	q := url.Values{
		"response_type":  {"code"},
		"state":          {stateValue},
		"code_challenge": {codeChallenge},
	}
	return "https://idp.example.com/authorize?" + q.Encode()
}

func (s *stubProvider) ExchangeCode(
	ctx context.Context, code, codeVerifier string,
) (*auth.Identity, error) {
	s.exchangeCalls.Add(1)
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	if code != validCode {
		return nil, fmt.Errorf("%w (status 400)", auth.ErrIdPRejectedCode)
	}
	if codeVerifier == "" {
		return nil, fmt.Errorf("%w: missing verifier", auth.ErrIdPRejectedCode)
	}
	return &auth.Identity{
		Provider:       "stub",
		ProviderUserID: "ext-42",
		Email:          "jo@example.com",
		EmailVerified:  true,
	}, nil
}

// stubResolver returns a fixed user and counts invocations.
type stubResolver struct {
	resolveCalls atomic.Int64
	err          error
}

func (s *stubResolver) Resolve(
	ctx context.Context, identity *auth.Identity,
) (*auth.User, error) {
	s.resolveCalls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &auth.User{ID: "user-1", Email: identity.Email, Role: "user"}, nil
}

type fixture struct {
	orch     *Orchestrator
	provider *stubProvider
	resolver *stubResolver
	codec    *token.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := token.NewCodec(token.Config{
		Secret: "this-is-a-valid-signing-secret-32-chars-long",
		Issuer: "overboard-auth",
	})
	require.NoError(t, err)

	p := &stubProvider{}
	res := &stubResolver{}

	orch := NewOrchestrator(
		provider.NewRegistry(p),
		state.NewMemoryGuard(5*time.Minute),
		res,
		codec,
		Config{
			FrontendURL:     "https://app.example.com/login/done",
			TokenTTL:        30 * time.Minute,
			ExchangeTimeout: 5 * time.Second,
		},
	)
	return &fixture{orch: orch, provider: p, resolver: res, codec: codec}
}

// stateFromAuthURL pulls the state parameter out of the redirect the
// orchestrator hands the browser.
func stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	stateValue := u.Query().Get("state")
	require.NotEmpty(t, stateValue)
	return stateValue
}

func TestFlow_FullLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.orch.StartLogin(ctx, "stub")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "https://idp.example.com/authorize?"))
	stateValue := stateFromAuthURL(t, authURL)

	redirect, err := f.orch.HandleCallback(ctx, "stub", validCode, stateValue)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(redirect, "https://app.example.com/login/done?"))

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	signed := u.Query().Get("token")
	require.NotEmpty(t, signed)

	claims, err := f.codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestFlow_UnknownStateNeverReachesIdP(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.HandleCallback(
		context.Background(), "stub", validCode, "never-issued")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
	assert.Equal(t, int64(0), f.provider.exchangeCalls.Load())
	assert.Equal(t, int64(0), f.resolver.resolveCalls.Load())
}

func TestFlow_IdPRejectsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.orch.StartLogin(ctx, "stub")
	require.NoError(t, err)
	stateValue := stateFromAuthURL(t, authURL)

	_, err = f.orch.HandleCallback(ctx, "stub", "spent-code", stateValue)
	assert.ErrorIs(t, err, auth.ErrIdPRejectedCode)

	// Resolution never ran, so no user row was touched.
	assert.Equal(t, int64(0), f.resolver.resolveCalls.Load())
}

func TestFlow_ReplayedStateExactlyOneCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, err := f.orch.StartLogin(ctx, "stub")
	require.NoError(t, err)
	stateValue := stateFromAuthURL(t, authURL)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		replayed  int
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.orch.HandleCallback(ctx, "stub", validCode, stateValue)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, auth.ErrInvalidState):
				replayed++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, replayed)
	assert.Equal(t, int64(1), f.provider.exchangeCalls.Load())
}

func TestFlow_MissingCodeOrState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.HandleCallback(ctx, "stub", "", "some-state")
	assert.ErrorIs(t, err, auth.ErrMalformedRequest)

	_, err = f.orch.HandleCallback(ctx, "stub", validCode, "")
	assert.ErrorIs(t, err, auth.ErrMalformedRequest)
}

func TestFlow_UnknownProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.StartLogin(ctx, "nope")
	assert.ErrorIs(t, err, auth.ErrUnknownProvider)

	_, err = f.orch.HandleCallback(ctx, "nope", validCode, "some-state")
	assert.ErrorIs(t, err, auth.ErrUnknownProvider)
}

func TestFlow_ResolverFailureDoesNotMintToken(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = auth.ErrStorageUnavailable
	ctx := context.Background()

	authURL, err := f.orch.StartLogin(ctx, "stub")
	require.NoError(t, err)
	stateValue := stateFromAuthURL(t, authURL)

	redirect, err := f.orch.HandleCallback(ctx, "stub", validCode, stateValue)
	assert.ErrorIs(t, err, auth.ErrStorageUnavailable)
	assert.Empty(t, redirect)
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:             "idle",
		StateLoginStarted:     "login_started",
		StateCallbackReceived: "callback_received",
		StateResolved:         "resolved",
		StateCompleted:        "completed",
		StateFailed:           "failed",
		State(99):             "unknown",
	} {
		assert.Equal(t, want, s.String())
	}
}
