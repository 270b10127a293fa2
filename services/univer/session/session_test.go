package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"univer-backend/lib/telemetry"
	"univer-backend/services/univer"

	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	logins atomic.Int64
	delay  time.Duration
	err    error
	block  chan struct{}
}

func (f *fakeAuth) Login(ctx context.Context, cred univer.Credential) (univer.Token, error) {
	f.logins.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return univer.Token{}, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return univer.Token{}, f.err
	}
	return univer.Token{
		Cookies:  map[string]string{".ASPXAUTH": "tok-" + cred.Username},
		IssuedAt: time.Now(),
	}, nil
}

func TestAcquireCoalescesConcurrentLogins(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	auth := &fakeAuth{delay: time.Millisecond * 50}
	m := NewManager(auth, Options{})

	cred := univer.Credential{Username: "student", Password: "pw"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.Acquire(context.Background(), cred)
			require.NoError(t, err)
			require.True(t, token.Valid())
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, auth.logins.Load())

	// still cached
	_, err := m.Acquire(context.Background(), cred)
	require.NoError(t, err)
	require.EqualValues(t, 1, auth.logins.Load())
}

func TestAcquireSharesLoginError(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	auth := &fakeAuth{delay: time.Millisecond * 20, err: univer.ErrInvalidCredential}
	m := NewManager(auth, Options{})

	cred := univer.Credential{Username: "student", Password: "wrong"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Acquire(context.Background(), cred)
			require.ErrorIs(t, err, univer.ErrInvalidCredential)
		}()
	}
	wg.Wait()
}

func TestInvalidateForcesRelogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	auth := &fakeAuth{}
	m := NewManager(auth, Options{})
	cred := univer.Credential{Username: "student", Password: "pw"}

	_, err := m.Acquire(context.Background(), cred)
	require.NoError(t, err)
	m.Invalidate(cred.Username)
	_, err = m.Acquire(context.Background(), cred)
	require.NoError(t, err)
	require.EqualValues(t, 2, auth.logins.Load())
}

func TestWithSessionRetriesOnceOnExpiry(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	auth := &fakeAuth{}
	m := NewManager(auth, Options{})
	cred := univer.Credential{Username: "student", Password: "pw"}

	var calls int
	out, err := WithSession(context.Background(), m, cred, func(ctx context.Context, token univer.Token) (string, error) {
		calls++
		if calls == 1 {
			return "", univer.ErrAuthorizationExpired
		}
		return "data", nil
	})
	require.NoError(t, err)
	require.Equal(t, "data", out)
	require.Equal(t, 2, calls)
	require.EqualValues(t, 2, auth.logins.Load())
}

func TestWithSessionFailsOnSecondExpiry(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	auth := &fakeAuth{}
	m := NewManager(auth, Options{})
	cred := univer.Credential{Username: "student", Password: "pw"}

	var calls int
	_, err := WithSession(context.Background(), m, cred, func(ctx context.Context, token univer.Token) (string, error) {
		calls++
		return "", univer.ErrAuthorizationExpired
	})
	require.Error(t, err)
	// bounded to exactly one relogin and one retry
	require.Equal(t, 2, calls)
	require.EqualValues(t, 2, auth.logins.Load())
}

func TestSerializedLoginSlotTimesOut(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:session")
	defer cleanup()

	block := make(chan struct{})
	auth := &fakeAuth{block: block}
	m := NewManager(auth, Options{
		SerializeLogins: true,
		LoginWait:       time.Millisecond * 100,
	})

	// occupy the slot with an identity whose login never finishes
	go m.Acquire(context.Background(), univer.Credential{Username: "slow"})

	require.Eventually(t, func() bool {
		return auth.logins.Load() == 1
	}, time.Second, time.Millisecond*5)

	_, err := m.Acquire(context.Background(), univer.Credential{Username: "other"})
	require.ErrorIs(t, err, univer.ErrAuthorizationTimeout)

	close(block)
}
