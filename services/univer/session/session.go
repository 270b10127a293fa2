// Package session owns the authenticated-session lifecycle for portal
// users: acquiring, caching, invalidating and re-acquiring login
// cookies. Logins against the portal are slow and rate-sensitive, so
// the manager coalesces concurrent attempts per identity and can
// serialize logins globally when the auth endpoint cannot take more
// than one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"univer-backend/services/univer"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("services/univer/session")
var meter = otel.Meter("services/univer/session")

// Authenticator performs the actual login. univer.Client implements
// it; tests substitute fakes.
type Authenticator interface {
	Login(ctx context.Context, cred univer.Credential) (univer.Token, error)
}

type Options struct {
	// MaxTokenAge bounds how long a token is reused before a fresh
	// login, even if the portal never complained. Defaults to 15m.
	MaxTokenAge time.Duration
	// LoginTimeout is the hard bound on a single login attempt.
	// Defaults to 30s.
	LoginTimeout time.Duration
	// LoginWait bounds how long a caller waits for the shared login
	// slot before giving up with ErrAuthorizationTimeout. Defaults to
	// 10s.
	LoginWait time.Duration
	// SerializeLogins caps login concurrency across *different*
	// identities at one. Needed when the login mechanism is a single
	// shared heavyweight resource (browser automation).
	SerializeLogins bool
}

func (o *Options) fillDefaults() {
	if o.MaxTokenAge == 0 {
		o.MaxTokenAge = time.Minute * 15
	}
	if o.LoginTimeout == 0 {
		o.LoginTimeout = time.Second * 30
	}
	if o.LoginWait == 0 {
		o.LoginWait = time.Second * 10
	}
}

// Manager owns tokens for every identity of one institution. A token
// is held by at most one identity; at most one login per identity is
// ever in flight.
type Manager struct {
	auth   Authenticator
	opts   Options
	tokens *expirable.LRU[string, univer.Token]
	flight singleflight.Group
	// slot serializes logins across identities when non-nil
	slot chan struct{}

	loginCounter metric.Int64Counter
}

func NewManager(auth Authenticator, opts Options) *Manager {
	opts.fillDefaults()

	var slot chan struct{}
	if opts.SerializeLogins {
		slot = make(chan struct{}, 1)
	}

	loginCounter, err := meter.Int64Counter(
		"session_login_total",
		metric.WithDescription("The total amount of portal logins performed."),
	)
	if err != nil {
		slog.Warn("failed to create login counter", "err", err)
	}

	return &Manager{
		auth:         auth,
		opts:         opts,
		tokens:       expirable.NewLRU[string, univer.Token](2048, nil, opts.MaxTokenAge),
		slot:         slot,
		loginCounter: loginCounter,
	}
}

// Acquire returns a cached, still-valid token for the identity, or
// performs a login. Concurrent callers for the same identity share one
// login attempt and receive its result, success or error alike.
func (m *Manager) Acquire(ctx context.Context, cred univer.Credential) (univer.Token, error) {
	if token, ok := m.tokens.Get(cred.Username); ok {
		return token, nil
	}

	out, err, _ := m.flight.Do(cred.Username, func() (any, error) {
		// the flight winner may have stored a token while we were
		// queued behind it
		if token, ok := m.tokens.Get(cred.Username); ok {
			return token, nil
		}
		return m.login(ctx, cred)
	})
	if err != nil {
		return univer.Token{}, err
	}
	return out.(univer.Token), nil
}

func (m *Manager) login(ctx context.Context, cred univer.Credential) (univer.Token, error) {
	ctx, span := tracer.Start(ctx, "login")
	defer span.End()

	if m.slot != nil {
		select {
		case m.slot <- struct{}{}:
			defer func() { <-m.slot }()
		case <-time.After(m.opts.LoginWait):
			span.SetStatus(codes.Error, "login slot wait exceeded")
			return univer.Token{}, univer.ErrAuthorizationTimeout
		case <-ctx.Done():
			return univer.Token{}, ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, m.opts.LoginTimeout)
	defer cancel()

	token, err := m.auth.Login(ctx, cred)
	if err != nil {
		// a failed login leaves any previous token untouched
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return univer.Token{}, err
	}

	if m.loginCounter != nil {
		m.loginCounter.Add(ctx, 1)
	}
	m.tokens.Add(cred.Username, token)
	return token, nil
}

// Invalidate drops the cached token for an identity. The next Acquire
// will log in again.
func (m *Manager) Invalidate(identity string) {
	m.tokens.Remove(identity)
}

// WithSession runs fn with a valid token. If fn reports the session
// expired upstream, the manager invalidates the token, logs in again
// exactly once, and retries fn once. A second expiry after the fresh
// login is surfaced as a fatal error: it means expiry is not the real
// problem, and retrying further would only hammer the login endpoint.
func WithSession[T any](
	ctx context.Context,
	m *Manager,
	cred univer.Credential,
	fn func(ctx context.Context, token univer.Token) (T, error),
) (T, error) {
	var zero T

	token, err := m.Acquire(ctx, cred)
	if err != nil {
		return zero, err
	}

	out, err := fn(ctx, token)
	if !errors.Is(err, univer.ErrAuthorizationExpired) {
		return out, err
	}

	slog.InfoContext(ctx, "session expired upstream, relogin", "identity", cred.Username)
	m.Invalidate(cred.Username)

	token, err = m.Acquire(ctx, cred)
	if err != nil {
		return zero, err
	}

	out, err = fn(ctx, token)
	if errors.Is(err, univer.ErrAuthorizationExpired) {
		return zero, fmt.Errorf("session expired again right after relogin: %w", err)
	}
	return out, err
}
