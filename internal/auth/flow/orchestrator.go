package flow

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/provider"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/resolver"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/state"
	"github.com/cswitzer/OverboardTodosApp/internal/auth/token"
	"github.com/cswitzer/OverboardTodosApp/internal/logger"

	"github.com/golang-jwt/jwt/v5"
)

// State is the position of one login attempt in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoginStarted
	StateCallbackReceived
	StateResolved
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoginStarted:
		return "login_started"
	case StateCallbackReceived:
		return "callback_received"
	case StateResolved:
		return "resolved"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config holds the orchestrator's fixed parameters.
type Config struct {
	// FrontendURL receives the final redirect with ?token= attached.
	FrontendURL string

	// TokenTTL is the lifetime of minted access tokens.
	TokenTTL time.Duration

	// ExchangeTimeout bounds the code-for-identity network call.
	ExchangeTimeout time.Duration
}

// Orchestrator drives one login attempt end to end: issue the IdP
// redirect, validate the callback, exchange the code, resolve the
// user, mint the token. It holds no per-request state of its own;
// every attempt is a fresh state machine scoped to one state value.
type Orchestrator struct {
	providers *provider.Registry
	guard     state.Guard
	resolver  resolver.Resolver
	codec     *token.Codec
	cfg       Config
}

func NewOrchestrator(
	registry *provider.Registry,
	guard state.Guard,
	res resolver.Resolver,
	codec *token.Codec,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		providers: registry,
		guard:     guard,
		resolver:  res,
		codec:     codec,
		cfg:       cfg,
	}
}

// attempt tracks the state machine for a single login. Completed and
// Failed are terminal; an attempt value is never reused.
type attempt struct {
	provider string
	current  State
}

func (a *attempt) to(next State) {
	a.current = next
}

func (a *attempt) fail(err error) error {
	logger.Warn("login attempt failed", map[string]any{
		"provider": a.provider,
		"state":    a.current.String(),
		"error":    err.Error(),
	})
	a.current = StateFailed
	return err
}

// StartLogin issues a fresh handshake and returns the IdP
// authorization URL the caller should redirect to.
func (o *Orchestrator) StartLogin(
	ctx context.Context,
	providerName string,
) (string, error) {

	a := &attempt{provider: providerName, current: StateIdle}

	p, err := o.providers.Get(providerName)
	if err != nil {
		return "", a.fail(err)
	}

	grant, err := o.guard.Issue(ctx)
	if err != nil {
		return "", a.fail(err)
	}

	authURL := p.AuthCodeURL(grant.State, grant.CodeChallenge)
	a.to(StateLoginStarted)

	logger.Info("login started", map[string]any{
		"provider": providerName,
	})
	return authURL, nil
}

// HandleCallback completes a handshake: consume the state value,
// exchange the code, resolve the user, mint the token, and return the
// frontend redirect carrying it. Every step short-circuits to Failed;
// nothing is retried after partial success.
func (o *Orchestrator) HandleCallback(
	ctx context.Context,
	providerName string,
	code string,
	stateValue string,
) (string, error) {

	a := &attempt{provider: providerName, current: StateLoginStarted}
	a.to(StateCallbackReceived)

	if code == "" || stateValue == "" {
		return "", a.fail(fmt.Errorf("%w: missing code or state",
			auth.ErrMalformedRequest))
	}

	p, err := o.providers.Get(providerName)
	if err != nil {
		return "", a.fail(err)
	}

	// State consumption comes first: a replayed or expired callback
	// must never reach the IdP.
	codeVerifier, err := o.guard.Consume(ctx, stateValue)
	if err != nil {
		return "", a.fail(err)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, o.cfg.ExchangeTimeout)
	defer cancel()

	identity, err := p.ExchangeCode(exchangeCtx, code, codeVerifier)
	if err != nil {
		return "", a.fail(err)
	}

	user, err := o.resolver.Resolve(ctx, identity)
	if err != nil {
		return "", a.fail(err)
	}
	a.to(StateResolved)

	signed, err := o.codec.Sign(token.Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
		},
	}, o.cfg.TokenTTL)
	if err != nil {
		return "", a.fail(err)
	}
	a.to(StateCompleted)

	logger.Info("login completed", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
	})
	return o.redirectURL(signed), nil
}

func (o *Orchestrator) redirectURL(signedToken string) string {
	q := url.Values{"token": {signedToken}}
	return o.cfg.FrontendURL + "?" + q.Encode()
}
